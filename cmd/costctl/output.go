package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"linecast/internal/pricing"
	"linecast/internal/types"
)

type formatter interface {
	Format(v any) (string, error)
}

func newFormatter(format types.OutputFormat) formatter {
	switch format {
	case types.OutputJSON:
		return jsonFormatter{}
	case types.OutputYAML:
		return yamlFormatter{}
	default:
		return tableFormatter{p: message.NewPrinter(language.English)}
	}
}

type jsonFormatter struct{}

func (jsonFormatter) Format(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting JSON: %w", err)
	}
	return string(b) + "\n", nil
}

// yamlFormatter goes through the JSON encoding so YAML keys match the API's
// camelCase field names and keep their declaration order.
type yamlFormatter struct{}

func (yamlFormatter) Format(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("formatting YAML: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("formatting YAML: %w", err)
	}
	blockStyle(&doc)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("formatting YAML: %w", err)
	}
	return string(out), nil
}

// blockStyle drops the flow and quoting styles the JSON input carries so the
// encoder picks plain block YAML.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// tableFormatter renders each result type as aligned text with grouped
// thousands.
type tableFormatter struct {
	p *message.Printer
}

func (f tableFormatter) Format(v any) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	switch r := v.(type) {
	case []pricing.PricingPlan:
		f.plans(w, r)
	case pricing.CostBreakdown:
		f.breakdown(w, r)
	case pricing.PlanSuggestion:
		f.suggestion(w, r)
	case pricing.BudgetResult:
		f.budget(w, r)
	case pricing.PlanImpact:
		f.impact(w, r)
	case pricing.FrequencySimulation:
		f.simulation(w, r)
	default:
		return "", fmt.Errorf("no table layout for %T", v)
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (f tableFormatter) yen(n int64) string {
	return f.p.Sprintf("¥%d", n)
}

func (f tableFormatter) count(n int64) string {
	return f.p.Sprintf("%d", n)
}

func (f tableFormatter) plans(w *tabwriter.Writer, plans []pricing.PricingPlan) {
	fmt.Fprintln(w, "ID\tNAME\tMONTHLY FEE\tINCLUDED\tOVERAGE")
	for _, p := range plans {
		overage := "no"
		if p.AllowsOverage {
			overage = fmt.Sprintf("%d bands", len(p.MarginalRates))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, f.yen(p.MonthlyFee), f.count(p.IncludedMessages), overage)
	}
}

func (f tableFormatter) breakdown(w *tabwriter.Writer, b pricing.CostBreakdown) {
	fmt.Fprintf(w, "Plan:\t%s\n", b.Plan.Name)
	fmt.Fprintf(w, "Messages:\t%s of %s included\n", f.count(b.MessagesUsed), f.count(b.MessagesIncluded))
	fmt.Fprintf(w, "Overage:\t%s\n", f.count(b.OverageMessages))
	fmt.Fprintf(w, "Base cost:\t%s\n", f.yen(b.BaseCost))
	fmt.Fprintf(w, "Additional cost:\t%s\n", f.yen(b.AdditionalCost))
	fmt.Fprintf(w, "Total:\t%s\n", f.yen(b.TotalCost))
	fmt.Fprintf(w, "Can send:\t%t\n", b.CanSend)
	if b.Warning != "" {
		fmt.Fprintf(w, "Warning:\t%s\n", b.Warning)
	}
}

func (f tableFormatter) suggestion(w *tabwriter.Writer, s pricing.PlanSuggestion) {
	fmt.Fprintln(w, "PLAN\tTOTAL\tCAN SEND\t")
	for _, c := range s.Calculations {
		marker := ""
		if c.Plan.ID == s.Suggested.ID {
			marker = "<- suggested"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", c.Plan.ID, f.yen(c.TotalCost), c.CanSend, marker)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Reasoning)
}

func (f tableFormatter) budget(w *tabwriter.Writer, r pricing.BudgetResult) {
	fmt.Fprintf(w, "Plan:\t%s\n", r.Plan.Name)
	fmt.Fprintf(w, "Budget:\t¥%s\n", r.Budget.String())
	fmt.Fprintf(w, "Max messages:\t%s\n", f.count(r.MaxMessages))
	fmt.Fprintf(w, "Estimated cost:\t%s\n", f.yen(r.EstimatedCost))
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Recommendation)
}

func (f tableFormatter) impact(w *tabwriter.Writer, i pricing.PlanImpact) {
	fmt.Fprintln(w, "PLAN\tTOTAL\tCAN SEND")
	fmt.Fprintf(w, "%s\t%s\t%t\n", i.CurrentCost.Plan.ID, f.yen(i.CurrentCost.TotalCost), i.CurrentCost.CanSend)
	fmt.Fprintf(w, "%s\t%s\t%t\n", i.NewCost.Plan.ID, f.yen(i.NewCost.TotalCost), i.NewCost.CanSend)
	fmt.Fprintln(w)
	fmt.Fprintln(w, i.Recommendation)
}

func (f tableFormatter) simulation(w *tabwriter.Writer, s pricing.FrequencySimulation) {
	fmt.Fprintf(w, "Friends:\t%s\n", f.count(s.FriendsCount))
	fmt.Fprintf(w, "Broadcasts per week:\t%d\n", s.WeeklyFrequency)
	fmt.Fprintf(w, "Messages per month:\t%s\n", f.count(s.MonthlyMessages))
	fmt.Fprintf(w, "Plan:\t%s\n", s.OptimalPlan.Name)
	fmt.Fprintf(w, "Monthly cost:\t%s\n", f.yen(s.MonthlyCost))
	fmt.Fprintf(w, "Cost per message:\t¥%s\n", s.CostPerMessage.StringFixed(2))
	fmt.Fprintf(w, "Cost per friend:\t¥%s\n", s.CostPerFriend.StringFixed(2))
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Reasoning)
}
