package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"linecast/internal/pricing"
)

func newPlansCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the plans of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.print(cmd.OutOrStdout(), opts.catalog.Plans())
		},
	}
}

func newEstimateCmd(opts *cliOptions) *cobra.Command {
	var (
		planID   string
		messages int64
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Price a monthly message volume on one plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := opts.lookup(planID)
			if err != nil {
				return err
			}
			b, err := pricing.CalculateMonthlyCost(messages, plan)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id: free, light or standard")
	cmd.Flags().Int64Var(&messages, "messages", 0, "messages sent in the month")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("messages")
	return cmd
}

func newSuggestCmd(opts *cliOptions) *cobra.Command {
	var messages int64

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Find the cheapest plan that can carry a monthly volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.advisor.Suggest(messages)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().Int64Var(&messages, "messages", 0, "expected messages per month")
	_ = cmd.MarkFlagRequired("messages")
	return cmd
}

func newBudgetCmd(opts *cliOptions) *cobra.Command {
	var (
		planID string
		budget string
	)

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Compute how many messages a monthly budget buys on one plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(budget)
			if err != nil {
				return fmt.Errorf("invalid --budget %q: %w", budget, err)
			}
			plan, err := opts.lookup(planID)
			if err != nil {
				return err
			}
			res, err := pricing.MaxMessagesWithBudget(amount, plan)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id: free, light or standard")
	cmd.Flags().StringVar(&budget, "budget", "", "monthly budget in yen, e.g. 33000 or 20000.50")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func newCompareCmd(opts *cliOptions) *cobra.Command {
	var (
		current  string
		next     string
		messages int64
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the monthly cost of a volume on two plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := opts.lookup(current)
			if err != nil {
				return err
			}
			nxt, err := opts.lookup(next)
			if err != nil {
				return err
			}
			impact, err := pricing.AnalyzePlanImpact(cur, nxt, messages)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), impact)
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current plan id")
	cmd.Flags().StringVar(&next, "new", "", "plan id to compare against")
	cmd.Flags().Int64Var(&messages, "messages", 0, "messages per month")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	_ = cmd.MarkFlagRequired("messages")
	return cmd
}

func newSimulateCmd(opts *cliOptions) *cobra.Command {
	var friends, weekly int64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Price a weekly broadcast schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := opts.advisor.Simulate(friends, weekly)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), sim)
		},
	}
	cmd.Flags().Int64Var(&friends, "friends", 0, "number of friends reached per broadcast")
	cmd.Flags().Int64Var(&weekly, "weekly", 0, "broadcasts per week")
	_ = cmd.MarkFlagRequired("friends")
	_ = cmd.MarkFlagRequired("weekly")
	return cmd
}
