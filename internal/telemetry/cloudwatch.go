// Package telemetry publishes API metrics to CloudWatch.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"linecast/internal/types"
)

// maxDatumsPerCall is the PutMetricData limit per request.
const maxDatumsPerCall = 1000

// defaultFlushSize triggers an early flush so memory stays bounded between
// ticks.
const defaultFlushSize = 200

// CloudWatchClient is the part of *cloudwatch.Client used here.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers request metrics and publishes them in batches.
// RecordRequest never blocks on the network; Flush, Run and Close publish.
//
// Metrics emitted:
//   - APIRequestCount: Dims {Endpoint, Status}
//   - APILatency: Dims {Endpoint}
//   - UpstreamFailure: Dims {Provider}
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
	flushSize int
	now       func() time.Time

	mu      sync.Mutex
	pending []cwtypes.MetricDatum
	kick    chan struct{}
}

// NewCloudWatchMetrics publishes to namespace, or types.MetricNamespace when
// empty.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
		flushSize: defaultFlushSize,
		now:       time.Now,
		kick:      make(chan struct{}, 1),
	}
}

// RecordRequest implements core.MetricsCollector.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	name := method + " " + endpoint
	ts := aws.Time(m.now())

	m.enqueue(
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Timestamp:  ts,
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(types.DimEndpoint), Value: aws.String(name)},
				{Name: aws.String(types.DimStatus), Value: aws.String(status)},
			},
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Timestamp:  ts,
			Value:      aws.Float64(float64(duration.Microseconds()) / 1000),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(types.DimEndpoint), Value: aws.String(name)},
			},
		},
	)
}

// RecordUpstreamFailure counts a failed call to a third-party API.
func (m *CloudWatchMetrics) RecordUpstreamFailure(provider string) {
	m.enqueue(cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricUpstreamFailure),
		Timestamp:  aws.Time(m.now()),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(types.DimProvider), Value: aws.String(provider)},
		},
	})
}

func (m *CloudWatchMetrics) enqueue(datums ...cwtypes.MetricDatum) {
	m.mu.Lock()
	m.pending = append(m.pending, datums...)
	full := len(m.pending) >= m.flushSize
	m.mu.Unlock()

	if full {
		select {
		case m.kick <- struct{}{}:
		default:
		}
	}
}

// Flush publishes everything buffered so far. Failed batches are logged and
// dropped; metrics are best effort.
func (m *CloudWatchMetrics) Flush(ctx context.Context) {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for len(batch) > 0 {
		n := min(len(batch), maxDatumsPerCall)
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[:n],
		})
		if err != nil {
			m.logger.WarnContext(ctx, "failed to publish metrics",
				"error", err,
				"datums", n,
			)
		}
		batch = batch[n:]
	}
}

// Run flushes every interval, or sooner when the buffer fills, until ctx is
// cancelled.
func (m *CloudWatchMetrics) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Flush(ctx)
		case <-m.kick:
			m.Flush(ctx)
		}
	}
}

// Close publishes whatever is still buffered.
func (m *CloudWatchMetrics) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.Flush(ctx)
	return nil
}

// Pending reports how many datums are waiting for the next flush.
func (m *CloudWatchMetrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
