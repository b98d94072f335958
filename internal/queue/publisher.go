// Package queue provides the SQS-based producer that hands rendered
// notification envelopes to the transport sender.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"relaypoint/internal/notify"
	"relaypoint/internal/types"
)

// sqsMaxDelay is the SQS DelaySeconds ceiling (15 minutes).
const sqsMaxDelay = 900

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// EnvelopePublisher serializes rendered envelopes and sends them to the
// transport sender queue. SQS calls go through a circuit breaker so a
// queue outage fails fast instead of holding worker invocations open.
type EnvelopePublisher struct {
	client   SQSSender
	queueURL string
	breaker  *gobreaker.CircuitBreaker[*sqs.SendMessageOutput]
	logger   types.Logger
}

// NewEnvelopePublisher creates an EnvelopePublisher targeting the given
// envelope queue.
func NewEnvelopePublisher(client SQSSender, queueURL string, logger types.Logger) *EnvelopePublisher {
	breaker := gobreaker.NewCircuitBreaker[*sqs.SendMessageOutput](gobreaker.Settings{
		Name:        "envelope-queue",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &EnvelopePublisher{
		client:   client,
		queueURL: queueURL,
		breaker:  breaker,
		logger:   logger,
	}
}

// Publish sends an envelope message to the transport queue with the given
// delay. The message's RetryCount is incremented before serialization so
// the consumer always sees an accurate attempt number; delay is clamped to
// the SQS maximum of 900 seconds. A missing TraceID is filled in so every
// envelope is traceable end to end.
func (p *EnvelopePublisher) Publish(ctx context.Context, msg types.EnvelopeMessage, delay time.Duration) error {
	msg.RetryCount++
	if msg.TraceID == "" {
		msg.TraceID = uuid.New().String()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("envelope publisher: failed to marshal message: %w", err)
	}

	delaySec := int32(delay.Seconds())
	if delaySec > sqsMaxDelay {
		delaySec = sqsMaxDelay
	}
	if delaySec < 0 {
		delaySec = 0
	}

	_, err = p.breaker.Execute(func() (*sqs.SendMessageOutput, error) {
		return p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:     aws.String(p.queueURL),
			MessageBody:  aws.String(string(body)),
			DelaySeconds: delaySec,
		})
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamQueue,
			fmt.Sprintf("failed to publish envelope to %s", p.queueURL), err)
	}

	p.logger.Info("envelope published",
		"notification_id", msg.NotificationID,
		"retry_count", msg.RetryCount,
		"delay_seconds", delaySec,
		"trace_id", msg.TraceID,
	)
	return nil
}

// NewEnvelopeMessage builds the queue payload for a rendered envelope.
func NewEnvelopeMessage(env notify.Envelope, traceID string) types.EnvelopeMessage {
	return types.EnvelopeMessage{
		NotificationID: env.NotificationID,
		MessageID:      env.MessageID,
		Subject:        env.Subject,
		To:             env.To,
		Body:           env.Body,
		TraceID:        traceID,
	}
}
