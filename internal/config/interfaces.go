package config

import "context"

// SecretProvider abstracts the retrieval of secrets to support both AWS SSM
// Parameter Store (production) and plain environment variables (local
// development). The interface enables dependency injection for testing and
// environment-specific secret resolution.
type SecretProvider interface {
	// GetParametersBatch retrieves multiple secret values. The keys slice
	// contains SSM parameter paths (or equivalent identifiers) to resolve.
	// Returns a map of key -> plaintext value for every successfully
	// resolved parameter.
	//
	// Implementations must handle batching internally to cope with API
	// limits during cold starts.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
