package notify

import (
	"fmt"

	"relaypoint/internal/schema"
	"relaypoint/internal/types"
)

// Node is the capability a report object must expose to be notified about.
// Object models in the pipeline implement it; the core never looks past
// these three members.
type Node interface {
	// ID returns the object's identifier within its object list.
	ID() string
	// Summarize returns a single-line, human-readable object summary.
	Summarize() string
	// Describe returns a detailed human-readable object description.
	Describe() string
}

// Notification binds a Message to the report object and subscription that
// triggered it, and carries the derived deduplication identifier. Construct
// via NewNotification; instances are immutable.
//
// The identifier is fully determined by the quadruple
// (subscription, object list, object ID, message ID): two notifications
// with identical quadruples always share an identifier regardless of any
// other message or object content. That determinism is what lets the spool
// store enforce at-most-once delivery with a plain unique-key insert.
type Notification struct {
	objectList   string
	obj          Node
	subscription string
	message      Message
	id           string
}

// NewNotification validates its inputs in order and derives the composite
// notification identifier:
//
//	subscription ":" objectList ":" EncodePart(obj.ID()) ":" EncodePart(message.ID())
//
// objectList must name a top-level object list known to the registry.
// subscription must be empty or start with a latin letter or digit followed
// by letters, digits and underscores, and encode into at most 64 UTF-8
// bytes. message must have been built by NewMessage.
//
// A derived identifier rejected by IsValidStoreKey is a contract violation:
// every component was already individually bounded, so the only way to get
// here is a schema/codec mismatch. Callers should escalate, not retry.
func NewNotification(registry schema.Registry, objectList string, obj Node, subscription string, message Message) (*Notification, error) {
	if objectList == "" || registry == nil || !registry.Contains(objectList) {
		return nil, types.NewAppError(types.ErrCodeValidationObjectList,
			fmt.Sprintf("unknown object list %q", objectList), nil)
	}
	if obj == nil {
		return nil, types.NewAppError(types.ErrCodeValidationObject, "object is nil", nil)
	}
	if err := validateSubscription(subscription); err != nil {
		return nil, err
	}
	if !message.valid {
		return nil, types.NewAppError(types.ErrCodeValidationMessage,
			"message was not built by NewMessage", nil)
	}

	id := subscription + ":" + objectList + ":" +
		EncodePart(obj.ID()) + ":" + EncodePart(message.id)
	if !IsValidStoreKey(id) {
		return nil, types.NewAppError(types.ErrCodeContractStoreKey,
			fmt.Sprintf("derived notification ID is not a valid store key (%d bytes)", len(id)), nil)
	}

	return &Notification{
		objectList:   objectList,
		obj:          obj,
		subscription: subscription,
		message:      message,
		id:           id,
	}, nil
}

// validateSubscription enforces the subscription name rule as explicit
// charset checks: empty is permitted; otherwise the first byte must be a
// latin letter or digit and the rest letters, digits or underscores. The
// charset is pure ASCII, so byte iteration is exact.
func validateSubscription(subscription string) error {
	if len(subscription) > MaxSubscriptionBytes {
		return types.NewAppError(types.ErrCodeValidationSubscription,
			fmt.Sprintf("subscription exceeds %d bytes", MaxSubscriptionBytes), nil)
	}
	for i := 0; i < len(subscription); i++ {
		c := subscription[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '_' && i > 0:
		default:
			return types.NewAppError(types.ErrCodeValidationSubscription,
				fmt.Sprintf("subscription contains invalid character %q at position %d", c, i), nil)
		}
	}
	return nil
}

// ID returns the composite deduplication identifier.
func (n *Notification) ID() string { return n.id }

// ObjectList returns the name of the object list the notified object
// belongs to.
func (n *Notification) ObjectList() string { return n.objectList }

// Object returns the report object being notified about.
func (n *Notification) Object() Node { return n.obj }

// Subscription returns the name of the subscription that fired.
func (n *Notification) Subscription() string { return n.subscription }

// Message returns the notification message.
func (n *Notification) Message() Message { return n.message }
