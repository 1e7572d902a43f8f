package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
)

func newUnitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List pressure unit codes accepted in pressure_unit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tSYMBOL\tNAME\tTO MPa")
			for _, u := range leakoff.Units() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%g\n", u.Code, u.Symbol, u.Name, u.ToMPa)
			}
			return tw.Flush()
		},
	}
}
