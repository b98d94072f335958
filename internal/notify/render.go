package notify

import "strings"

// Envelope header names. The transport sender copies these verbatim onto
// the outgoing message and adds the From header itself.
const (
	HeaderSubject        = "Subject"
	HeaderTo             = "To"
	HeaderNotificationID = "X-Relaypoint-Notification-ID"
	HeaderMessageID      = "X-Relaypoint-Notification-Message-ID"
)

// Envelope is the transport-neutral rendered notification: headers plus a
// plain-text body. It deliberately carries no sender; the transport
// collaborator must fill in the origin before delivery.
type Envelope struct {
	Subject        string
	To             string
	NotificationID string
	MessageID      string
	Body           string
}

// Headers returns the envelope's header map for the transport sender.
func (e Envelope) Headers() map[string]string {
	return map[string]string{
		HeaderSubject:        e.Subject,
		HeaderTo:             e.To,
		HeaderNotificationID: e.NotificationID,
		HeaderMessageID:      e.MessageID,
	}
}

// Render produces the notification's envelope. Pure, no I/O.
//
// The subject is the message summary directly followed by the object
// summary, and the body the message description directly followed by the
// object description; no separator is inserted in either case, the message
// fields are expected to end appropriately. This is a deliberate low-level
// string join, not templating.
func Render(n *Notification) Envelope {
	msg := n.Message()
	return Envelope{
		Subject:        msg.Summary() + n.Object().Summarize(),
		To:             strings.Join(msg.Recipients(), ", "),
		NotificationID: n.ID(),
		MessageID:      msg.ID(),
		Body:           msg.Description() + n.Object().Describe(),
	}
}
