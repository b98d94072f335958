// Package metrics emits pipeline telemetry to AWS CloudWatch. Metric
// failures are logged and swallowed: telemetry must never fail a
// notification.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"relaypoint/internal/types"
)

// Metric and dimension names.
const (
	metricStageOutcome = "StageOutcome"
	metricStageLatency = "StageLatency"
	dimStage           = "Stage"
	dimResult          = "Result"
)

// Stage identifies the pipeline step being measured.
type Stage string

const (
	StageSpool   Stage = "spool"
	StagePublish Stage = "publish"
)

// Result categorizes a stage outcome for metrics reporting.
type Result string

const (
	ResultCreated   Result = "created"
	ResultDuplicate Result = "duplicate"
	ResultRejected  Result = "rejected"
	ResultFailed    Result = "failed"
	ResultSuccess   Result = "success"
)

// Recorder abstracts telemetry for the notify worker.
type Recorder interface {
	RecordOutcome(ctx context.Context, stage Stage, result Result)
	RecordLatency(ctx context.Context, stage Stage, duration time.Duration)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder implements Recorder against AWS CloudWatch.
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchRecorder creates a CloudWatchRecorder publishing to the
// given namespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordOutcome emits a StageOutcome count with Stage and Result
// dimensions.
func (m *CloudWatchRecorder) RecordOutcome(ctx context.Context, stage Stage, result Result) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricStageOutcome),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimStage), Value: aws.String(string(stage))},
					{Name: aws.String(dimResult), Value: aws.String(string(result))},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record outcome metric",
			"error", err.Error(),
			"stage", string(stage),
			"result", string(result),
		)
	}
}

// RecordLatency emits a StageLatency metric in milliseconds.
func (m *CloudWatchRecorder) RecordLatency(ctx context.Context, stage Stage, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricStageLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimStage), Value: aws.String(string(stage))},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record latency metric",
			"error", err.Error(),
			"stage", string(stage),
		)
	}
}

// NopRecorder is a Recorder that discards everything. Used when metrics
// are disabled in config.
type NopRecorder struct{}

func (NopRecorder) RecordOutcome(context.Context, Stage, Result)        {}
func (NopRecorder) RecordLatency(context.Context, Stage, time.Duration) {}

// Compile-time assertions.
var (
	_ Recorder = (*CloudWatchRecorder)(nil)
	_ Recorder = NopRecorder{}
)
