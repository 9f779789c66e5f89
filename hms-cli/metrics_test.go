package hmscli

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/tj/assert"
)

type mockCloudWatch struct {
	cloudwatchiface.CloudWatchAPI

	mu    sync.Mutex
	input []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricDataWithContext(_ aws.Context, input *cloudwatch.PutMetricDataInput, _ ...request.Option) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.input = append(m.input, input)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetrics(t *testing.T) {
	var (
		api     = &mockCloudWatch{}
		service = Service{Name: "chat-gateway", Version: "abc"}
		metrics = NewMetrics(service, api)
		ctx     = context.Background()
	)

	metrics.Gauge(ctx, OnlineUsersMetric, 3)
	metrics.Event(ctx, AuthFailureMetric, map[DimensionName]string{OperationNameDimension: "open"})

	assert.Len(t, api.input, 2)

	gauge := api.input[0]
	assert.Equal(t, metricsNamespace, aws.StringValue(gauge.Namespace))
	assert.Equal(t, string(OnlineUsersMetric), aws.StringValue(gauge.MetricData[0].MetricName))
	assert.EqualValues(t, 3, aws.Float64Value(gauge.MetricData[0].Value))
	assert.Len(t, gauge.MetricData[0].Dimensions, 2)

	event := api.input[1]
	assert.Equal(t, cloudwatch.StandardUnitCount, aws.StringValue(event.MetricData[0].Unit))
	assert.Len(t, event.MetricData[0].Dimensions, 3)
}
