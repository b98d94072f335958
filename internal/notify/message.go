package notify

import (
	"fmt"

	"relaypoint/internal/types"
)

// Validation constraint constants.
const (
	MaxSummaryBytes      = 256
	MaxMessageIDBytes    = 256
	MaxSubscriptionBytes = 64
)

// Message is the validated, immutable description of what is being
// communicated: who to tell, a one-line summary, a longer description, and
// a caller-chosen sub-identifier distinguishing this kind of message within
// a subscription. Construct via NewMessage; the zero value is not valid.
type Message struct {
	recipients  []string
	summary     string
	description string
	id          string
	valid       bool
}

// NewMessage validates the fields in order and returns an immutable
// Message. The first violated field aborts construction with a validation
// error; no partially-valid Message ever exists.
//
// Constraints:
//   - recipients: destination addresses, may be empty (no cardinality floor
//     at this layer).
//   - summary: single line, no control characters (U+0000..U+001F, U+007F),
//     at most 256 UTF-8 bytes.
//   - description: any string; length is deliberately unbounded here.
//   - id: at most 256 UTF-8 bytes. The system sends at most one
//     notification with the same id per subscription per report object.
func NewMessage(recipients []string, summary, description, id string) (Message, error) {
	if err := validateSummary(summary); err != nil {
		return Message{}, err
	}
	if len(id) > MaxMessageIDBytes {
		return Message{}, types.NewAppError(types.ErrCodeValidationMessageID,
			fmt.Sprintf("message ID exceeds %d bytes", MaxMessageIDBytes), nil)
	}

	m := Message{
		recipients:  make([]string, len(recipients)),
		summary:     summary,
		description: description,
		id:          id,
		valid:       true,
	}
	copy(m.recipients, recipients)
	return m, nil
}

// validateSummary enforces the "printable, single-line" rule as an explicit
// rune scan: every control character, including '\n', '\t' and DEL, is
// forbidden. Checked before the byte-length bound so the caller hears about
// the most actionable violation first.
func validateSummary(summary string) error {
	for _, r := range summary {
		if r <= 0x1f || r == 0x7f {
			return types.NewAppError(types.ErrCodeValidationSummary,
				fmt.Sprintf("summary contains control character %q", r), nil)
		}
	}
	if len(summary) > MaxSummaryBytes {
		return types.NewAppError(types.ErrCodeValidationSummary,
			fmt.Sprintf("summary exceeds %d bytes", MaxSummaryBytes), nil)
	}
	return nil
}

// Recipients returns a copy of the destination address list.
func (m Message) Recipients() []string {
	out := make([]string, len(m.recipients))
	copy(out, m.recipients)
	return out
}

// Summary returns the one-line summary of the object state.
func (m Message) Summary() string { return m.summary }

// Description returns the detailed description of the object state.
func (m Message) Description() string { return m.description }

// ID returns the caller-chosen message sub-identifier.
func (m Message) ID() string { return m.id }
