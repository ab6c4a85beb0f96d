package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const DefaultMetricsNamespace = "OrderPro"

// Metric names published by the order service.
const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"

	MetricOrdersCreated     = "OrdersCreated"
	MetricOrdersFailed      = "OrdersFailed"
	MetricOrderValue        = "OrderValue"
	MetricInventoryReserved = "InventoryReserved"
	MetricInventoryReleased = "InventoryReleased"
	MetricDeliveryUpdates   = "DeliveryStatusUpdates"

	MetricCacheHits   = "CacheHits"
	MetricCacheMisses = "CacheMisses"
)

// maxBatch is the number of data points sent per PutMetricData call.
const maxBatch = 20

// metricPutter is the part of the CloudWatch client used here.
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsClient publishes custom metrics to CloudWatch. A nil or disabled
// client accepts every call and sends nothing.
type MetricsClient struct {
	client    metricPutter
	namespace string
	enabled   bool
	now       func() time.Time
}

func NewMetricsClient(cfg sdkaws.Config, namespace string, enabled bool) *MetricsClient {
	return newMetricsClient(cloudwatch.NewFromConfig(cfg), namespace, enabled)
}

func newMetricsClient(client metricPutter, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}
	return &MetricsClient{client: client, namespace: namespace, enabled: enabled, now: time.Now}
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

// PutMetric sends a single data point.
func (m *MetricsClient) PutMetric(ctx context.Context, name string, value float64, unit types.StandardUnit, dimensions map[string]string) error {
	if !m.IsEnabled() {
		return nil
	}
	return m.PutMetricBatch(ctx, []types.MetricDatum{m.datum(name, value, unit, dimensions)})
}

// PutMetricBatch sends data points in chunks of maxBatch.
func (m *MetricsClient) PutMetricBatch(ctx context.Context, data []types.MetricDatum) error {
	if !m.IsEnabled() || len(data) == 0 {
		return nil
	}

	for start := 0; start < len(data); start += maxBatch {
		end := min(start+maxBatch, len(data))
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  sdkaws.String(m.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to put metric data: %w", err)
		}
	}
	return nil
}

func (m *MetricsClient) RecordCount(ctx context.Context, name string, dimensions map[string]string) error {
	return m.PutMetric(ctx, name, 1, types.StandardUnitCount, dimensions)
}

// RecordLatency records a duration in milliseconds.
func (m *MetricsClient) RecordLatency(ctx context.Context, name string, d time.Duration, dimensions map[string]string) error {
	return m.PutMetric(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *MetricsClient) RecordValue(ctx context.Context, name string, value float64, dimensions map[string]string) error {
	return m.PutMetric(ctx, name, value, types.StandardUnitNone, dimensions)
}

func (m *MetricsClient) datum(name string, value float64, unit types.StandardUnit, dimensions map[string]string) types.MetricDatum {
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dims := make([]types.Dimension, 0, len(keys))
	for _, k := range keys {
		dims = append(dims, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(dimensions[k])})
	}
	return types.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(value),
		Unit:       unit,
		Timestamp:  sdkaws.Time(m.now()),
		Dimensions: dims,
	}
}
