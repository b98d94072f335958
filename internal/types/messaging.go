package types

// ReportEventMessage is the SQS payload sent from the subscription matcher
// to the notify worker. It carries everything needed to build and validate
// a notification for one triggered subscription: a snapshot of the report
// object, the subscription name, and the message the subscription composed.
// JSON tags use snake_case to match the upstream matcher's payload model.
type ReportEventMessage struct {
	// Core Identity
	EventID    string `json:"event_id"`
	ObjectList string `json:"object_list"`
	ObjectID   string `json:"object_id"`

	// Object projections, pre-rendered by the matcher so the worker does
	// not need report database access.
	ObjectSummary     string `json:"object_summary"`
	ObjectDescription string `json:"object_description"`

	// Subscription & Message
	Subscription string   `json:"subscription"`
	Recipients   []string `json:"recipients"`
	Summary      string   `json:"summary"`
	Description  string   `json:"description"`
	MessageID    string   `json:"message_id"`

	// Retry State: carried across the SQS publish-subscribe cycle.
	// Incremented by workers on transient failures before re-publishing.
	RetryCount int `json:"retry_count"`

	// Observability
	TraceID string `json:"trace_id"`
}

// EnvelopeMessage is the SQS payload handed to the transport sender. It is
// the rendered, transport-neutral envelope plus identity and retry state.
// The sender supplies the From header and performs actual delivery, keyed
// by NotificationID for at-most-once semantics.
type EnvelopeMessage struct {
	NotificationID string `json:"notification_id"`
	MessageID      string `json:"message_id"`

	Subject string `json:"subject"`
	To      string `json:"to"`
	Body    string `json:"body"`

	RetryCount int    `json:"retry_count"`
	TraceID    string `json:"trace_id"`
}
