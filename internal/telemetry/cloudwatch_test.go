package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"linecast/internal/types"
)

type mockCloudWatchClient struct {
	mu        sync.Mutex
	calls     []*cloudwatch.PutMetricDataInput
	returnErr error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (m *mockCloudWatchClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestMetrics(cw CloudWatchClient) *CloudWatchMetrics {
	m := NewCloudWatchMetrics(cw, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }
	return m
}

func dimension(dims []cwtypes.Dimension, name string) string {
	for _, d := range dims {
		if *d.Name == name {
			return *d.Value
		}
	}
	return ""
}

func TestRecordRequest_BuffersUntilFlush(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := newTestMetrics(cw)

	m.RecordRequest("POST", "/v1/cost/estimate", "200", 1500*time.Microsecond)

	if cw.callCount() != 0 {
		t.Fatal("RecordRequest should not publish synchronously")
	}
	if m.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", m.Pending())
	}

	m.Flush(context.Background())
	if cw.callCount() != 1 || m.Pending() != 0 {
		t.Fatalf("calls = %d pending = %d", cw.callCount(), m.Pending())
	}

	input := cw.calls[0]
	if *input.Namespace != types.MetricNamespace {
		t.Errorf("namespace = %q", *input.Namespace)
	}
	if len(input.MetricData) != 2 {
		t.Fatalf("datums = %d", len(input.MetricData))
	}

	count, latency := input.MetricData[0], input.MetricData[1]
	if *count.MetricName != types.MetricAPIRequestCount || *count.Value != 1 {
		t.Errorf("count datum = %s %v", *count.MetricName, *count.Value)
	}
	if dimension(count.Dimensions, types.DimEndpoint) != "POST /v1/cost/estimate" {
		t.Errorf("endpoint = %q", dimension(count.Dimensions, types.DimEndpoint))
	}
	if dimension(count.Dimensions, types.DimStatus) != "200" {
		t.Errorf("status = %q", dimension(count.Dimensions, types.DimStatus))
	}
	if *latency.MetricName != types.MetricAPILatency || *latency.Value != 1.5 || latency.Unit != cwtypes.StandardUnitMilliseconds {
		t.Errorf("latency datum = %s %v %s", *latency.MetricName, *latency.Value, latency.Unit)
	}
}

func TestRecordUpstreamFailure(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := newTestMetrics(cw)

	m.RecordUpstreamFailure("line")
	m.Flush(context.Background())

	datum := cw.calls[0].MetricData[0]
	if *datum.MetricName != types.MetricUpstreamFailure || dimension(datum.Dimensions, types.DimProvider) != "line" {
		t.Errorf("datum = %s %v", *datum.MetricName, datum.Dimensions)
	}
}

func TestFlush_SplitsLargeBatches(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := newTestMetrics(cw)
	m.flushSize = 1 << 20

	for i := 0; i < 600; i++ {
		m.RecordRequest("GET", "/v1/cost/plans", "200", time.Millisecond)
	}
	m.Flush(context.Background())

	if cw.callCount() != 2 {
		t.Fatalf("calls = %d, want 2", cw.callCount())
	}
	if len(cw.calls[0].MetricData) != 1000 || len(cw.calls[1].MetricData) != 200 {
		t.Errorf("batch sizes = %d, %d", len(cw.calls[0].MetricData), len(cw.calls[1].MetricData))
	}
}

func TestFlush_ErrorDropsBatch(t *testing.T) {
	cw := &mockCloudWatchClient{returnErr: errors.New("throttled")}
	m := newTestMetrics(cw)

	m.RecordUpstreamFailure("line")
	m.Flush(context.Background())

	if m.Pending() != 0 {
		t.Errorf("pending = %d, want 0 after failed flush", m.Pending())
	}
}

func TestFlush_EmptyIsNoop(t *testing.T) {
	cw := &mockCloudWatchClient{}
	newTestMetrics(cw).Flush(context.Background())
	if cw.callCount() != 0 {
		t.Errorf("calls = %d", cw.callCount())
	}
}

func TestRun_FlushesWhenBufferFills(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := newTestMetrics(cw)
	m.flushSize = 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Hour)
		close(done)
	}()

	m.RecordRequest("GET", "/health", "200", time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for cw.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if cw.callCount() != 1 {
		t.Errorf("calls = %d, want 1", cw.callCount())
	}
}

func TestClose_FlushesRemainder(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := newTestMetrics(cw)

	m.RecordRequest("GET", "/v1/simulations", "200", time.Millisecond)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if cw.callCount() != 1 {
		t.Errorf("calls = %d", cw.callCount())
	}
}
