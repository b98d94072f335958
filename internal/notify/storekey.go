package notify

import "strings"

// MaxStoreKeyBytes is the document store's key length limit in UTF-8 bytes.
const MaxStoreKeyBytes = 1500

// IsValidStoreKey checks whether a value can be used as a document or
// collection key in the external key-value store. The store forbids keys
// longer than 1500 UTF-8 bytes, the path-relative names "." and "..", the
// path separator '/', and names both starting and ending with "__"
// (reserved for the store's own bookkeeping).
//
// Total function: never panics, any invalid value simply reports false.
func IsValidStoreKey(value string) bool {
	return len(value) <= MaxStoreKeyBytes &&
		value != "." &&
		value != ".." &&
		!strings.Contains(value, "/") &&
		!(strings.HasPrefix(value, "__") && strings.HasSuffix(value, "__"))
}
