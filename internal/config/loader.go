// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Scan environment for _SSM_PARAM suffix variables.
//  4. If APP_ENV != "local", resolve the pointers via the SecretProvider
//     and inject the resolved values back into the environment.
//  5. Use envconfig to process struct tags and populate the Config struct.
//  6. Populate BuildInfo from linker-injected variables.
//  7. Validate the struct using go-playground/validator.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ssmParamSuffix identifies secret pointer variables. For example,
// SPOOL_DATABASE_URL_SSM_PARAM holds the SSM path whose decrypted value
// becomes SPOOL_DATABASE_URL.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses secret resolution.
const localEnv = "local"

// secretResolveTimeout bounds the SecretProvider call during loading.
const secretResolveTimeout = 30 * time.Second

// loaderDeps holds the injectable environment access functions, enabling
// tests that do not mutate process state.
type loaderDeps struct {
	lookupEnv func(key string) (string, bool)
	setEnv    func(key, value string) error
	environ   func() []string
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// Load loads and validates the worker configuration.
//
// The provider is used to resolve *_SSM_PARAM pointers. It may be nil for
// local development; for non-local environments with pointers present it
// must be non-nil.
func Load(provider SecretProvider) (*Config, error) {
	return loadWithDeps(provider, defaultDeps())
}

func loadWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	// Enforce UTC for the whole process.
	time.Local = time.UTC

	// .env is optional and never overrides existing environment variables.
	_ = godotenv.Load()

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSecretParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// resolveSecretParams scans the environment for variables ending in
// _SSM_PARAM, fetches the corresponding secret values via the provider, and
// injects them back into the environment so envconfig can process them.
// A pointer whose target variable is already set is skipped, preserving the
// Env > Dotenv > SSM priority chain.
func resolveSecretParams(provider SecretProvider, deps loaderDeps) error {
	pathToTarget := make(map[string]string)
	var paths []string

	for _, entry := range deps.environ() {
		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		key, path := entry[:eq], entry[eq+1:]
		if !strings.HasSuffix(key, ssmParamSuffix) || path == "" {
			continue
		}
		target := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		pathToTarget[path] = target
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil
	}
	if provider == nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("SecretProvider required to resolve %d secret pointers", len(paths)),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), secretResolveTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("failed to resolve %d secret parameters", len(paths)),
			Err:     err,
		}
	}

	var missing []string
	for _, path := range paths {
		value, ok := resolved[path]
		if !ok {
			missing = append(missing, pathToTarget[path])
			continue
		}
		if err := deps.setEnv(pathToTarget[path], value); err != nil {
			return &ConfigError{
				Type:    ErrSecretResolution,
				Message: fmt.Sprintf("failed to inject resolved value for %s", pathToTarget[path]),
				Err:     err,
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: "secret parameters not found for: " + strings.Join(missing, ", "),
		}
	}

	return nil
}
