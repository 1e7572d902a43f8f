package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/client"
	"github.com/SKB-CADDep/Balance-plus/cli/internal/local"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		server string
		format string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the server answers and its certificate is valid",
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
			rep := c.Check(cmd.Context())
			if format == "table" {
				err = printCheck(cmd.OutOrStdout(), rep)
			} else {
				err = local.Encode(cmd.OutOrStdout(), format, rep)
			}
			if err != nil {
				return err
			}
			if rep.Health == nil {
				return errors.New("server check failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server base URL (overrides config)")
	cmd.Flags().StringVar(&format, "format", "table", "table|json|yaml")
	return cmd
}

func printCheck(w io.Writer, rep client.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "server\t%s\n", rep.Server)
	if rep.Health != nil {
		h := rep.Health
		fmt.Fprintf(tw, "status\t%s\n", h.Status)
		fmt.Fprintf(tw, "stored results\t%d\n", h.StoredResults)
		fmt.Fprintf(tw, "catalog\t%d turbines, %d valves\n", h.Turbines, h.Valves)
		fmt.Fprintf(tw, "active alerts\t%d\n", h.ActiveAlerts)
	} else {
		fmt.Fprintf(tw, "status\tunreachable\t%s\n", rep.Error)
	}
	if cs := rep.Cert; cs != nil {
		if cs.Status == "unreachable" {
			fmt.Fprintf(tw, "certificate\tunreachable\n")
		} else {
			fmt.Fprintf(tw, "certificate\t%s\t%d days left (%s)\n", cs.Status, cs.DaysLeft, cs.Issuer)
		}
	}
	return tw.Flush()
}
