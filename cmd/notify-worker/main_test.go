package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"relaypoint/internal/metrics"
	"relaypoint/internal/queue"
	"relaypoint/internal/schema"
	"relaypoint/internal/spool"
	"relaypoint/internal/types"
)

// --- Mock Types ---

// stubDBTX implements spool.DBTX. Only Exec is exercised by the worker;
// Query and QueryRow exist to satisfy the interface.
type stubDBTX struct {
	execCalls int
	execTag   pgconn.CommandTag
	execErr   error
	lastSQL   string
	lastArgs  []any
}

func (d *stubDBTX) Exec(_ context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	d.execCalls++
	d.lastSQL = sql
	d.lastArgs = arguments
	return d.execTag, d.execErr
}

func (d *stubDBTX) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (d *stubDBTX) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}

// stubSQSSender captures SendMessage inputs.
type stubSQSSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (s *stubSQSSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &sqs.SendMessageOutput{}, nil
}

// stubRecorder counts outcome emissions per stage/result pair.
type stubRecorder struct {
	outcomes     map[string]int
	latencyCalls int
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{outcomes: map[string]int{}}
}

func (r *stubRecorder) RecordOutcome(_ context.Context, stage metrics.Stage, result metrics.Result) {
	r.outcomes[string(stage)+"/"+string(result)]++
}

func (r *stubRecorder) RecordLatency(_ context.Context, _ metrics.Stage, _ time.Duration) {
	r.latencyCalls++
}

// testLogger implements types.Logger for tests.
type testLogger struct{}

func (l *testLogger) Info(_ string, _ ...any)    {}
func (l *testLogger) Error(_ string, _ ...any)   {}
func (l *testLogger) Warn(_ string, _ ...any)    {}
func (l *testLogger) With(_ ...any) types.Logger { return l }

// --- Helper Functions ---

type handlerFixture struct {
	handler  *Handler
	db       *stubDBTX
	sender   *stubSQSSender
	recorder *stubRecorder
}

func newHandlerFixture() *handlerFixture {
	db := &stubDBTX{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	sender := &stubSQSSender{}
	recorder := newStubRecorder()
	logger := &testLogger{}

	return &handlerFixture{
		handler: &Handler{
			registry:  schema.Latest(),
			store:     spool.NewStore(db),
			publisher: queue.NewEnvelopePublisher(sender, "https://sqs.us-east-1.amazonaws.com/123/envelopes", logger),
			metrics:   recorder,
			logger:    logger,
		},
		db:       db,
		sender:   sender,
		recorder: recorder,
	}
}

func validReportEvent() types.ReportEventMessage {
	return types.ReportEventMessage{
		EventID:           "evt-1",
		ObjectList:        "builds",
		ObjectID:          "build:42",
		ObjectSummary:     "build #42",
		ObjectDescription: "compiler output\n",
		Subscription:      "build_fail",
		Recipients:        []string{"dev@example.org"},
		Summary:           "build failed: ",
		Description:       "details follow\n",
		MessageID:         "daily",
		TraceID:           "trace-1",
	}
}

func buildSQSEvent(t *testing.T, msgs ...types.ReportEventMessage) events.SQSEvent {
	t.Helper()
	records := make([]events.SQSMessage, len(msgs))
	for i, msg := range msgs {
		body, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal report event: %v", err)
		}
		records[i] = events.SQSMessage{
			MessageId: msg.EventID,
			Body:      string(body),
		}
	}
	return events.SQSEvent{Records: records}
}

// --- Tests ---

func TestHandle_SpoolsAndPublishes(t *testing.T) {
	f := newHandlerFixture()

	resp, err := f.handler.Handle(context.Background(), buildSQSEvent(t, validReportEvent()))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no batch failures, got %d", len(resp.BatchItemFailures))
	}
	if f.db.execCalls != 1 {
		t.Errorf("expected 1 spool insert, got %d", f.db.execCalls)
	}
	if len(f.sender.inputs) != 1 {
		t.Fatalf("expected 1 envelope publish, got %d", len(f.sender.inputs))
	}

	var env types.EnvelopeMessage
	if err := json.Unmarshal([]byte(*f.sender.inputs[0].MessageBody), &env); err != nil {
		t.Fatalf("unmarshal published envelope: %v", err)
	}
	if env.NotificationID != "build_fail:builds:YnVpbGQ6NDI=:ZGFpbHk=" {
		t.Errorf("unexpected notification id %q", env.NotificationID)
	}
	if env.Subject != "build failed: build #42" {
		t.Errorf("unexpected subject %q", env.Subject)
	}
	if env.To != "dev@example.org" {
		t.Errorf("unexpected to %q", env.To)
	}
	if env.Body != "details follow\ncompiler output\n" {
		t.Errorf("unexpected body %q", env.Body)
	}
	if env.TraceID != "trace-1" {
		t.Errorf("trace id not propagated: %q", env.TraceID)
	}

	if f.recorder.outcomes["spool/created"] != 1 {
		t.Errorf("expected spool/created outcome, got %v", f.recorder.outcomes)
	}
	if f.recorder.outcomes["publish/success"] != 1 {
		t.Errorf("expected publish/success outcome, got %v", f.recorder.outcomes)
	}
}

func TestHandle_RejectsInvalidMessagePermanently(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*types.ReportEventMessage)
	}{
		{"unknown object list", func(m *types.ReportEventMessage) { m.ObjectList = "reports" }},
		{"subscription with space", func(m *types.ReportEventMessage) { m.Subscription = "build fail" }},
		{"subscription leading underscore", func(m *types.ReportEventMessage) { m.Subscription = "_daily" }},
		{"summary with newline", func(m *types.ReportEventMessage) { m.Summary = "line1\nline2" }},
		{"summary too long", func(m *types.ReportEventMessage) { m.Summary = strings.Repeat("x", 257) }},
		{"message id too long", func(m *types.ReportEventMessage) { m.MessageID = strings.Repeat("x", 257) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newHandlerFixture()
			msg := validReportEvent()
			tc.mutate(&msg)

			resp, err := f.handler.Handle(context.Background(), buildSQSEvent(t, msg))
			if err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			// Permanent rejection must ACK, not retry.
			if len(resp.BatchItemFailures) != 0 {
				t.Fatalf("expected no batch failures, got %d", len(resp.BatchItemFailures))
			}
			if f.db.execCalls != 0 {
				t.Errorf("expected no spool insert, got %d", f.db.execCalls)
			}
			if len(f.sender.inputs) != 0 {
				t.Errorf("expected no publish, got %d", len(f.sender.inputs))
			}
			if f.recorder.outcomes["spool/rejected"] != 1 {
				t.Errorf("expected spool/rejected outcome, got %v", f.recorder.outcomes)
			}
		})
	}
}

func TestHandle_MalformedBodyIsAcked(t *testing.T) {
	f := newHandlerFixture()
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "bad-1", Body: "{not json"},
	}}

	resp, err := f.handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no batch failures, got %d", len(resp.BatchItemFailures))
	}
	if f.db.execCalls != 0 || len(f.sender.inputs) != 0 {
		t.Error("malformed body must not reach spool or publisher")
	}
	// Permanent drops are counted like any other rejection.
	if f.recorder.outcomes["spool/rejected"] != 1 {
		t.Errorf("expected spool/rejected outcome, got %v", f.recorder.outcomes)
	}
}

func TestHandle_DuplicateSkipsPublish(t *testing.T) {
	f := newHandlerFixture()
	f.db.execTag = pgconn.NewCommandTag("INSERT 0 0")

	resp, err := f.handler.Handle(context.Background(), buildSQSEvent(t, validReportEvent()))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no batch failures, got %d", len(resp.BatchItemFailures))
	}
	if len(f.sender.inputs) != 0 {
		t.Errorf("duplicate must not publish, got %d sends", len(f.sender.inputs))
	}
	if f.recorder.outcomes["spool/duplicate"] != 1 {
		t.Errorf("expected spool/duplicate outcome, got %v", f.recorder.outcomes)
	}
}

func TestHandle_SpoolErrorRetries(t *testing.T) {
	f := newHandlerFixture()
	f.db.execErr = errors.New("connection reset")

	resp, err := f.handler.Handle(context.Background(), buildSQSEvent(t, validReportEvent()))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected 1 batch failure, got %d", len(resp.BatchItemFailures))
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "evt-1" {
		t.Errorf("unexpected failure identifier %q", resp.BatchItemFailures[0].ItemIdentifier)
	}
	if len(f.sender.inputs) != 0 {
		t.Error("failed spool must not publish")
	}
}

func TestHandle_PublishErrorRetries(t *testing.T) {
	f := newHandlerFixture()
	f.sender.err = errors.New("throttled")

	resp, err := f.handler.Handle(context.Background(), buildSQSEvent(t, validReportEvent()))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected 1 batch failure, got %d", len(resp.BatchItemFailures))
	}
	if f.recorder.outcomes["publish/failed"] != 1 {
		t.Errorf("expected publish/failed outcome, got %v", f.recorder.outcomes)
	}
}

func TestHandle_PartialBatch(t *testing.T) {
	f := newHandlerFixture()

	good := validReportEvent()
	// An oversized object id pushes the derived notification identifier
	// past the store key limit.
	bad := validReportEvent()
	bad.EventID = "evt-2"
	bad.ObjectID = strings.Repeat("x", 1500)

	resp, err := f.handler.Handle(context.Background(), buildSQSEvent(t, good, bad))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	// The second message fails validation permanently, so both are ACKed
	// but only the first reaches the publisher.
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no batch failures, got %d", len(resp.BatchItemFailures))
	}
	if len(f.sender.inputs) != 1 {
		t.Errorf("expected 1 publish, got %d", len(f.sender.inputs))
	}
}
