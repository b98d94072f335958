// Package notify implements the notification identity core: construction
// and validation of notification messages, derivation of the composite
// deduplication identifier, and rendering into a transport-neutral
// envelope. Everything in this package is pure and safe for concurrent use;
// at-most-once delivery is delegated to the spool store's insert-if-absent
// semantics keyed by the derived identifier.
package notify

import (
	"encoding/base64"

	"relaypoint/internal/types"
)

// idPartAlphabet is the standard base64 alphabet with '/' replaced by '-'.
// A '/' inside a composite key would be mis-parsed as a path separator by
// the document store; the substitution keeps the encoding key-safe without
// losing reversibility or fixed-width determinism.
const idPartAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-"

var idPartEncoding = base64.NewEncoding(idPartAlphabet).Strict()

// EncodePart encodes a string for safe embedding as one part of a
// ':'-delimited composite notification ID.
func EncodePart(s string) string {
	return idPartEncoding.EncodeToString([]byte(s))
}

// DecodePart is the exact inverse of EncodePart. Malformed input is
// rejected with a decode error. It exists for symmetry and testing; the
// identity derivation hot path never decodes.
func DecodePart(part string) (string, error) {
	b, err := idPartEncoding.DecodeString(part)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeDecodeIDPart, "malformed notification ID part", err)
	}
	return string(b), nil
}
