package types

// MessageQuota is the monthly message ceiling configured on the LINE
// Official Account. Value is meaningful only when Type is QuotaLimited.
type MessageQuota struct {
	Type  QuotaType `json:"type"`
	Value int64     `json:"value,omitempty"`
}

// Unlimited reports whether the account has no ceiling configured.
func (q MessageQuota) Unlimited() bool {
	return q.Type == QuotaNone
}

// MessageConsumption is the number of billable messages sent in the current
// month, as counted by LINE.
type MessageConsumption struct {
	TotalUsage int64 `json:"totalUsage"`
}
