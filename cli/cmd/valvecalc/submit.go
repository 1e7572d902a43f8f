package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/client"
	"github.com/SKB-CADDep/Balance-plus/cli/internal/local"
)

type submitOptions struct {
	dir         string
	server      string
	user        string
	preview     bool
	concurrency int
}

func newSubmitCmd(root *rootOptions) *cobra.Command {
	o := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit [request files...]",
		Short: "Send requests to balance-plus-server",
		Long: `Posts each request to the server, which calculates and stores it. Requests
are throttled and retried with backoff on transient failures; rejected
calculations are reported and not retried.`,
		Example: `  valvecalc submit req1.json req2.yaml
  valvecalc submit --dir requests/ --server https://balance.example.local -j 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.clientConfig()
			if err != nil {
				return err
			}
			if o.server != "" {
				cfg.Client.ServerURL = o.server
			}
			if o.user != "" {
				cfg.Client.User = o.user
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Client.Concurrency = o.concurrency
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			jobs, err := collectJobs(o.dir, args)
			if err != nil {
				return err
			}

			c, err := client.New(cfg.Client)
			if err != nil {
				return err
			}
			outcomes, err := local.Run(cmd.Context(), jobs, cfg.Client.Concurrency, func(ctx context.Context, j local.Job) (string, error) {
				rec, err := c.Submit(ctx, j.Request, o.preview)
				if err != nil {
					return "", err
				}
				if o.preview {
					return "preview " + rec.ValveDrawing, nil
				}
				return rec.ID, nil
			})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), outcomes)
		},
	}
	cmd.Flags().StringVarP(&o.dir, "dir", "d", "", "directory of request files")
	cmd.Flags().StringVar(&o.server, "server", "", "server base URL (overrides config)")
	cmd.Flags().StringVar(&o.user, "user", "", "operator name recorded with results (overrides config)")
	cmd.Flags().BoolVar(&o.preview, "preview", false, "calculate on the server without storing")
	cmd.Flags().IntVarP(&o.concurrency, "jobs", "j", 0, "requests in flight (overrides config)")
	return cmd
}

// collectJobs loads the request files named in args plus those in dir.
func collectJobs(dir string, args []string) ([]local.Job, error) {
	var jobs []local.Job
	if dir != "" {
		found, err := local.Scan(dir)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, found...)
	}
	for _, path := range args {
		req, err := local.LoadRequest(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, local.Job{Path: path, Request: req})
	}
	if len(jobs) == 0 {
		return nil, errors.New("no request files given")
	}
	return jobs, nil
}
