package config

import (
	"context"
	"os"
)

// EnvVarProvider implements SecretProvider by resolving secret values from
// OS environment variables. This is the provider for local development
// where secrets are set directly in the environment or via a .env file,
// bypassing AWS SSM Parameter Store.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch resolves each key with os.LookupEnv. Missing keys are
// silently omitted from the result. The context is accepted for interface
// compatibility only.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}

// Compile-time assertion that EnvVarProvider implements SecretProvider.
var _ SecretProvider = (*EnvVarProvider)(nil)
