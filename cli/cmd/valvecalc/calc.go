package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/local"
	"github.com/SKB-CADDep/Balance-plus/pkg/catalog"
	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/steamprops"
)

type calcOptions struct {
	request string
	valve   string
	catalog string
	out     string
	format  string
}

func newCalcCmd() *cobra.Command {
	o := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate one request locally",
		Long: `Runs one calculation on this machine. The valve geometry comes from
--valve (a single valve file) or --catalog (the server catalog, looked up by
the request's valve_drawing or valve_id).`,
		Example: `  valvecalc calc --request req.json --valve VS-215.40.yaml
  valvecalc calc --request req.yaml --catalog catalog.yaml --out result.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := resolver(o.valve, o.catalog)
			if err != nil {
				return err
			}
			req, err := local.LoadRequest(o.request)
			if err != nil {
				return err
			}
			result, err := local.Calculate(leakoff.New(steamprops.New()), res, o.request, req)
			if err != nil {
				return err
			}
			if o.out == "" || o.out == "-" {
				return local.Encode(cmd.OutOrStdout(), o.format, result)
			}
			return local.WriteFile(o.out, local.FormatFor(o.out, o.format), result)
		},
	}
	cmd.Flags().StringVarP(&o.request, "request", "r", "", "request file (JSON or YAML)")
	cmd.Flags().StringVar(&o.valve, "valve", "", "valve geometry file")
	cmd.Flags().StringVar(&o.catalog, "catalog", "", "valve catalog file")
	cmd.Flags().StringVarP(&o.out, "out", "o", "-", "output file; - for stdout")
	cmd.Flags().StringVar(&o.format, "format", local.FormatJSON, "json|yaml when the output has no telling extension")
	_ = cmd.MarkFlagRequired("request")
	cmd.MarkFlagsMutuallyExclusive("valve", "catalog")
	return cmd
}

func resolver(valvePath, catalogPath string) (local.Resolver, error) {
	switch {
	case valvePath != "":
		v, err := local.LoadValve(valvePath)
		if err != nil {
			return nil, err
		}
		return local.SingleValve(v), nil
	case catalogPath != "":
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		return cat, nil
	}
	return nil, errors.New("one of --valve or --catalog is required")
}
