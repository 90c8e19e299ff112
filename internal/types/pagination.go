package types

// Default and maximum page sizes for list endpoints.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// PageInfo contains pagination metadata for list responses.
type PageInfo struct {
	Limit   int  `json:"limit"`
	Count   int  `json:"count"`
	HasMore bool `json:"hasMore"`
}

// ListResponse is a generic list response wrapper.
type ListResponse[T any] struct {
	Data     []T      `json:"data"`
	PageInfo PageInfo `json:"pagination"`
}

// ResponseMeta contains non-blocking metadata returned with API responses,
// such as the calculator's advisory warning.
type ResponseMeta struct {
	Warnings []string `json:"warnings,omitempty"`
}

// ClampLimit normalizes a requested page size into [1, MaxListLimit].
// Zero or negative requests fall back to DefaultListLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
