package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/local"
	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/steamprops"
)

type batchOptions struct {
	dir         string
	valve       string
	catalog     string
	out         string
	format      string
	concurrency int
}

func newBatchCmd() *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Calculate every request in a directory locally",
		Long: `Runs each .json/.yaml request in --dir and writes <name>.<format> into
--out. Failed requests are reported and make the command exit non-zero, but do
not stop the rest of the batch.`,
		Example: `  valvecalc batch --dir requests/ --catalog catalog.yaml --out results/ -j 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := resolver(o.valve, o.catalog)
			if err != nil {
				return err
			}
			jobs, err := local.Scan(o.dir)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no request files in %q", o.dir)
			}
			if err := os.MkdirAll(o.out, 0o755); err != nil {
				return err
			}

			calc := leakoff.New(steamprops.New())
			outcomes, err := local.Run(cmd.Context(), jobs, o.concurrency, func(_ context.Context, j local.Job) (string, error) {
				result, err := local.Calculate(calc, res, j.Path, j.Request)
				if err != nil {
					return "", err
				}
				path := filepath.Join(o.out, j.Name()+"."+o.format)
				return path, local.WriteFile(path, o.format, result)
			})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), outcomes)
		},
	}
	cmd.Flags().StringVarP(&o.dir, "dir", "d", "", "directory of request files")
	cmd.Flags().StringVar(&o.valve, "valve", "", "valve geometry file used for every request")
	cmd.Flags().StringVar(&o.catalog, "catalog", "", "valve catalog file")
	cmd.Flags().StringVarP(&o.out, "out", "o", "results", "output directory")
	cmd.Flags().StringVar(&o.format, "format", local.FormatJSON, "json|yaml")
	cmd.Flags().IntVarP(&o.concurrency, "jobs", "j", 4, "requests calculated at once")
	_ = cmd.MarkFlagRequired("dir")
	cmd.MarkFlagsMutuallyExclusive("valve", "catalog")
	return cmd
}

// report prints one line per job and returns an error if any job failed.
func report[T any](w io.Writer, outcomes []local.Outcome[T]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tFAILED\t%v\n", o.Job.Name(), o.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\tok\t%v\n", o.Job.Name(), o.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(outcomes))
	}
	return nil
}
