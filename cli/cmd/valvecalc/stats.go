package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/client"
	"github.com/SKB-CADDep/Balance-plus/cli/internal/local"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var (
		server string
		format string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show calculation counters from the server's /metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.clientConfig()
			if err != nil {
				return err
			}
			if server != "" {
				cfg.Client.ServerURL = server
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c, err := client.New(cfg.Client)
			if err != nil {
				return err
			}
			st, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if format == "table" {
				return printStats(cmd.OutOrStdout(), st)
			}
			return local.Encode(cmd.OutOrStdout(), format, st)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server base URL (overrides config)")
	cmd.Flags().StringVar(&format, "format", "table", "table|json|yaml")
	return cmd
}

func printStats(w io.Writer, st client.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "stored results\t%.0f\n", st.StoredResults)
	section := func(title string, m map[string]float64) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s\t%.0f\n", title, k, m[k])
		}
	}
	section("calculations", st.Calculations)
	section("errors", st.Errors)
	section("solver flags", st.SolverFlags)
	section("cache", st.Cache)
	return tw.Flush()
}
