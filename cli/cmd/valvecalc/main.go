// Command valvecalc calculates valve stem leak-off locally or against a
// balance-plus-server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/config"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "valvecalc",
		Short:        "Valve stem steam and air leak-off calculator",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := parseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "client config file (valvecalc.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug|info|warn|error")

	root.AddCommand(
		newCalcCmd(),
		newBatchCmd(),
		newSubmitCmd(opts),
		newStatsCmd(opts),
		newCheckCmd(opts),
		newUnitsCmd(),
	)
	return root
}

// clientConfig loads the config file when one was given, otherwise defaults.
func (o *rootOptions) clientConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.configPath)
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
