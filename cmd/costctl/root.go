package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"linecast/internal/pricing"
	"linecast/internal/types"
)

// cliOptions is the state shared by every subcommand, populated from the
// persistent flags in PersistentPreRunE.
type cliOptions struct {
	catalogFile  string
	outputFormat string

	catalog   *pricing.Catalog
	advisor   *pricing.Advisor
	formatter formatter
}

// newRootCmd builds a fresh command tree. Tests call it once per case so flag
// state never leaks between runs.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "costctl",
		Short: "Estimate LINE Official Account messaging costs",
		Long: `costctl prices LINE Official Account message volumes offline.
It estimates a month on one plan, suggests the cheapest plan for a volume,
inverts a budget into a message count, compares two plans and simulates a
weekly broadcast schedule.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	root.PersistentFlags().StringVar(&opts.catalogFile, "catalog", "", "plan catalog file (.yaml or .json); defaults to the built-in LINE price list")
	root.PersistentFlags().StringVarP(&opts.outputFormat, "output", "o", string(types.OutputTable), "output format: table, json, yaml")

	root.AddCommand(
		newPlansCmd(opts),
		newEstimateCmd(opts),
		newSuggestCmd(opts),
		newBudgetCmd(opts),
		newCompareCmd(opts),
		newSimulateCmd(opts),
	)
	return root
}

func (o *cliOptions) init() error {
	format := types.OutputFormat(o.outputFormat)
	if !format.IsValid() {
		return fmt.Errorf("unsupported output format %q (want table, json or yaml)", o.outputFormat)
	}
	o.formatter = newFormatter(format)

	if o.catalogFile == "" {
		o.catalog = pricing.DefaultCatalog()
	} else {
		c, err := pricing.LoadCatalogFile(o.catalogFile)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		o.catalog = c
	}
	o.advisor = pricing.NewAdvisor(o.catalog)
	return nil
}

func (o *cliOptions) lookup(id string) (pricing.PricingPlan, error) {
	return o.catalog.Lookup(types.PlanID(id))
}

func (o *cliOptions) print(w io.Writer, v any) error {
	out, err := o.formatter.Format(v)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
