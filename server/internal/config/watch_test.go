package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := writeConfig(t, "server:\n  http_port: 8081\n")
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, p, func(c *Config) { got <- c }) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte("server:\n  http_port: 8082\n"), 0o600))

	select {
	case cfg := <-got:
		require.Equal(t, 8082, cfg.Server.HTTPPort)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_InvalidReloadKeepsPrevious(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := writeConfig(t, "server:\n  http_port: 8081\n")
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, p, func(c *Config) { got <- c }) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte("server:\n  http_port: -1\n"), 0o600))

	select {
	case cfg := <-got:
		t.Fatalf("unexpected reload: %+v", cfg.Server)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatchFile_IgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := writeConfig(t, "server: {}\n")
	ctx, cancel := context.WithCancel(context.Background())

	hits := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() { done <- WatchFile(ctx, p, func() { hits <- struct{}{} }) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(p+".bak", []byte("x"), 0o600))

	select {
	case <-hits:
		t.Fatal("sibling write triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
