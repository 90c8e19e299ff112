package types

// PlanID identifies a LINE Official Account pricing plan. The set is closed:
// catalogs may only contain these identifiers.
type PlanID string

const (
	PlanFree     PlanID = "free"
	PlanLight    PlanID = "light"
	PlanStandard PlanID = "standard"
)

// KnownPlanIDs lists every valid PlanID in canonical catalog order.
var KnownPlanIDs = []PlanID{PlanFree, PlanLight, PlanStandard}

// IsValid reports whether the PlanID belongs to the closed enumeration.
func (p PlanID) IsValid() bool {
	for _, id := range KnownPlanIDs {
		if p == id {
			return true
		}
	}
	return false
}

// QuotaType mirrors the "type" field returned by the LINE quota endpoint.
type QuotaType string

const (
	QuotaLimited QuotaType = "limited"
	QuotaNone    QuotaType = "none"
)

// OutputFormat selects how the CLI renders results.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

// IsValid reports whether f is a supported output format.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputTable, OutputJSON, OutputYAML:
		return true
	}
	return false
}
