package metrics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ Collector = (*CloudWatchCollector)(nil)

type CloudWatchCollector struct {
	cw         cloudWatchAPI
	namespace  string
	dimensions []types.Dimension
	timeout    time.Duration
}

func NewCloudWatchCollector(cw *cloudwatch.Client, namespace string, dimensions map[string]string) *CloudWatchCollector {
	return newCloudWatchCollector(cw, namespace, dimensions)
}

func newCloudWatchCollector(cw cloudWatchAPI, namespace string, dimensions map[string]string) *CloudWatchCollector {
	names := make([]string, 0, len(dimensions))
	for k := range dimensions {
		names = append(names, k)
	}
	sort.Strings(names)

	dims := make([]types.Dimension, 0, len(dimensions))
	for _, k := range names {
		k, v := k, dimensions[k]
		dims = append(dims, types.Dimension{Name: &k, Value: &v})
	}
	return &CloudWatchCollector{
		cw:         cw,
		namespace:  namespace,
		dimensions: dims,
		timeout:    10 * time.Second, // per-call timeout
	}
}

// Add one error to metrics
func (c *CloudWatchCollector) DrainError() {
	now := time.Now()
	one := 1.0
	c.put("DrainError", []types.MetricDatum{
		{
			MetricName: strPtr("DrainError"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitCount,
			Value:      &one,
		},
	})
}

// Add one success, the number of drained messages and a latency metric (milliseconds)
func (c *CloudWatchCollector) DrainSuccess(count int, timeMs int64) {
	now := time.Now()
	one := 1.0
	drained := float64(count)
	lat := float64(timeMs)
	c.put("DrainSuccess", []types.MetricDatum{
		{
			MetricName: strPtr("DrainSuccess"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitCount,
			Value:      &one,
		},
		{
			MetricName: strPtr("DrainedMessages"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitCount,
			Value:      &drained,
		},
		{
			MetricName: strPtr("DrainLatency"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitMilliseconds,
			Value:      &lat,
		},
	})
}

func (c *CloudWatchCollector) SendError() {
	now := time.Now()
	one := 1.0
	c.put("SendError", []types.MetricDatum{
		{
			MetricName: strPtr("SendError"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitCount,
			Value:      &one,
		},
	})
}

func (c *CloudWatchCollector) SendSuccess(timeMs int64) {
	now := time.Now()
	one := 1.0
	lat := float64(timeMs)
	c.put("SendSuccess", []types.MetricDatum{
		{
			MetricName: strPtr("SendSuccess"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitCount,
			Value:      &one,
		},
		{
			MetricName: strPtr("SendLatency"),
			Timestamp:  &now,
			Dimensions: c.dimensions,
			Unit:       types.StandardUnitMilliseconds,
			Value:      &lat,
		},
	})
}

func (c *CloudWatchCollector) put(name string, data []types.MetricDatum) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_, err := c.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &c.namespace,
		MetricData: data,
	})
	if err != nil {
		slog.Error("Failed to send CloudWatch metric", "metric", name, "error", err)
	}
}

func strPtr(s string) *string { return &s }
