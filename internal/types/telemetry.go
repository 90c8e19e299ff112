package types

// CloudWatch metric names and dimensions emitted by the API.
const (
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"
	MetricUpstreamFailure = "UpstreamFailure"

	DimEndpoint = "Endpoint"
	DimStatus   = "Status"
	DimProvider = "Provider"

	// MetricNamespace is the default namespace; METRIC_NAMESPACE overrides it.
	MetricNamespace = "Linecast"
)
