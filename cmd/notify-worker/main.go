// Package main is the entrypoint for the Notify Worker Lambda function.
//
// The Notify Worker consumes report event messages from the Report Events
// SQS Queue, builds and validates a notification for each triggered
// subscription, spools it in Postgres (duplicate-suppressing insert keyed
// by the notification identifier), renders the transport-neutral envelope,
// and publishes it to the Envelope SQS Queue for the transport sender. It
// implements the SQS Lambda handler pattern where each invocation receives
// a batch of SQS messages.
//
// Cold Start (main):
//  1. Initialize structured logger.
//  2. Load configuration (env, dotenv, SSM secret resolution).
//  3. Load AWS SDK configuration.
//  4. Initialize SQS client, CloudWatch client, pgx connection pool.
//  5. Initialize spool store, envelope publisher, metrics recorder.
//  6. Register handler and call lambda.Start.
//
// Handler flow:
//
//	For each SQS message in the batch:
//	  1. Unmarshal ReportEventMessage from the message body.
//	  2. Build the Message and Notification (validation failures are
//	     permanent: log, count as rejected, ACK).
//	  3. Spool the rendered envelope (duplicate -> ACK and skip publish).
//	  4. Publish the envelope message (failure -> partial batch retry).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaypoint/internal/config"
	"relaypoint/internal/metrics"
	"relaypoint/internal/notify"
	"relaypoint/internal/queue"
	"relaypoint/internal/schema"
	"relaypoint/internal/spool"
	"relaypoint/internal/types"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info, Error, and Warn directly, but With returns
// *slog.Logger rather than types.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// Handler holds the dependencies for the notify worker Lambda handler.
type Handler struct {
	registry  schema.Registry
	store     *spool.Store
	publisher *queue.EnvelopePublisher
	metrics   metrics.Recorder
	logger    types.Logger
}

// Handle processes an SQS event containing one or more report event
// messages. Each message is processed independently. Lambda SQS integration
// uses partial batch responses: messages that fail processing are returned
// in batchItemFailures so SQS can retry them without re-driving the batch.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.Error("failed to process SQS message",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

// processMessage handles a single SQS message through the full
// build-validate-spool-publish pipeline.
func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	start := time.Now()

	var msg types.ReportEventMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		h.logger.Error("failed to unmarshal report event message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		// Permanent parse failure - do not retry (return nil to ACK).
		h.metrics.RecordOutcome(ctx, metrics.StageSpool, metrics.ResultRejected)
		return nil
	}

	logger := h.logger.With(
		"event_id", msg.EventID,
		"object_list", msg.ObjectList,
		"object_id", msg.ObjectID,
		"subscription", msg.Subscription,
		"trace_id", msg.TraceID,
	)

	n, err := h.buildNotification(msg)
	if err != nil {
		if types.IsValidation(err) || types.IsContract(err) {
			// Permanent: the message can never become a valid
			// notification, so retrying is pointless.
			logger.Warn("rejecting report event message",
				"code", string(types.CodeOf(err)),
				"error", err.Error(),
			)
			h.metrics.RecordOutcome(ctx, metrics.StageSpool, metrics.ResultRejected)
			return nil
		}
		return fmt.Errorf("build notification: %w", err)
	}

	logger = logger.With("notification_id", n.ID())
	env := notify.Render(n)

	created, err := h.store.Put(ctx, n, env)
	if err != nil {
		h.metrics.RecordOutcome(ctx, metrics.StageSpool, metrics.ResultFailed)
		return fmt.Errorf("spool notification: %w", err)
	}
	if !created {
		logger.Info("notification already spooled, skipping publish")
		h.metrics.RecordOutcome(ctx, metrics.StageSpool, metrics.ResultDuplicate)
		return nil
	}
	h.metrics.RecordOutcome(ctx, metrics.StageSpool, metrics.ResultCreated)

	out := queue.NewEnvelopeMessage(env, msg.TraceID)
	if err := h.publisher.Publish(ctx, out, 0); err != nil {
		h.metrics.RecordOutcome(ctx, metrics.StagePublish, metrics.ResultFailed)
		return fmt.Errorf("publish envelope: %w", err)
	}

	h.metrics.RecordOutcome(ctx, metrics.StagePublish, metrics.ResultSuccess)
	h.metrics.RecordLatency(ctx, metrics.StagePublish, time.Since(start))

	logger.Info("notification spooled and envelope published",
		"recipients", len(msg.Recipients),
	)
	return nil
}

// buildNotification converts a report event message into a validated
// Notification entity.
func (h *Handler) buildNotification(msg types.ReportEventMessage) (*notify.Notification, error) {
	m, err := notify.NewMessage(msg.Recipients, msg.Summary, msg.Description, msg.MessageID)
	if err != nil {
		return nil, err
	}

	node := &eventNode{
		id:          msg.ObjectID,
		summary:     msg.ObjectSummary,
		description: msg.ObjectDescription,
	}
	return notify.NewNotification(h.registry, msg.ObjectList, node, msg.Subscription, m)
}

// eventNode adapts the object snapshot carried by a report event message
// to the notify.Node interface. The matcher pre-renders the summary and
// description so the worker needs no report database access.
type eventNode struct {
	id          string
	summary     string
	description string
}

func (n *eventNode) ID() string        { return n.id }
func (n *eventNode) Summarize() string { return n.summary }
func (n *eventNode) Describe() string  { return n.description }

func main() {
	// Bootstrap logger for the configuration phase; replaced by the
	// level-configured logger once config is loaded.
	bootLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	bootLogger.Info("Notify Worker Lambda initializing (cold start)")

	var provider config.SecretProvider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	if os.Getenv("APP_ENV") == "local" {
		provider = config.NewEnvVarProvider()
	}

	cfg, err := config.Load(provider)
	if err != nil {
		bootLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		bootLogger.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	typedLogger := &slogAdapter{logger: logger}

	ctx := context.Background()

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.EndpointURL != "" {
		awsOpts = append(awsOpts, awsconfig.WithBaseEndpoint(cfg.AWS.EndpointURL))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		logger.Error("Failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Spool.URL.Unmask())
	if err != nil {
		logger.Error("Failed to parse spool database URL", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.Spool.MaxConns)
	poolCfg.MinConns = int32(cfg.Spool.MinConns)
	poolCfg.MaxConnLifetime = cfg.Spool.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Failed to create spool connection pool", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	cwClient := cloudwatch.NewFromConfig(awsCfg)

	var recorder metrics.Recorder = metrics.NopRecorder{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewCloudWatchRecorder(cwClient, cfg.Metrics.Namespace, typedLogger)
	}

	handler := &Handler{
		registry:  schema.Latest(),
		store:     spool.NewStore(pool),
		publisher: queue.NewEnvelopePublisher(sqsClient, cfg.AWS.EnvelopeQueue, typedLogger),
		metrics:   recorder,
		logger:    typedLogger,
	}

	logger.Info("Notify Worker Lambda initialized",
		"report_event_queue", cfg.AWS.ReportEventQueue,
		"envelope_queue", cfg.AWS.EnvelopeQueue,
		"metric_namespace", cfg.Metrics.Namespace,
		"version", cfg.Build.Version,
	)

	// Local mode: read a JSON SQS event from stdin instead of starting the
	// Lambda runtime. This enables local integration testing without the
	// AWS Lambda RIE.
	if cfg.Environment == "local" {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		if len(payload) == 0 {
			logger.Error("No input received on stdin")
			os.Exit(1)
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			logger.Error("Failed to parse stdin as SQS event", "error", err)
			os.Exit(1)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			logger.Error("Handler execution failed", "error", err)
			os.Exit(1)
		}
		if len(response.BatchItemFailures) > 0 {
			respJSON, _ := json.MarshalIndent(response, "", "  ")
			fmt.Fprintln(os.Stderr, string(respJSON))
		}
		logger.Info("Handler execution completed",
			"records_processed", len(sqsEvent.Records),
			"failures", len(response.BatchItemFailures),
		)
		return
	}

	lambda.Start(handler.Handle)
}

// Compile-time assertion that slogAdapter implements types.Logger.
var _ types.Logger = (*slogAdapter)(nil)
