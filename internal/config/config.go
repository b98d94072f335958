// Package config defines the process configuration for the relaypoint
// notification workers. Configuration is loaded once at process
// initialization (Lambda cold start) and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format fails the process on
// startup.
package config

import (
	"fmt"
	"time"

	"relaypoint/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used in configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the notify worker.
// Sub-components receive only the specific subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"relaypoint-notify"`
	// Log level: debug, info, warn, error, or none. The default disables
	// logging entirely; workers opt in explicitly.
	LogLevel string `envconfig:"LOG_LEVEL" default:"none" validate:"oneof=debug info warn error none"`

	// Domain Configurations
	Spool   SpoolConfig
	AWS     AWSConfig
	Metrics MetricsConfig

	// Build Metadata (injected via ldflags, not env)
	Build BuildInfo
}

// SpoolConfig holds the notification spool database connection and pool
// tuning parameters.
type SpoolConfig struct {
	// Resolved from SSM or env.
	URL SecretString `envconfig:"SPOOL_DATABASE_URL" validate:"required,url"`

	MaxConns        int           `envconfig:"SPOOL_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"SPOOL_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"SPOOL_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"SPOOL_ACQUIRE_TIMEOUT" default:"2s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// ReportEventQueue is consumed by the notify worker; EnvelopeQueue is
	// where rendered envelopes are handed to the transport sender.
	ReportEventQueue string `envconfig:"SQS_REPORT_EVENTS" validate:"required,url"`
	EnvelopeQueue    string `envconfig:"SQS_ENVELOPES" validate:"required,url"`
	DlqURL           string `envconfig:"SQS_DLQ"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// MetricsConfig holds CloudWatch telemetry settings.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"Relaypoint/Notify"`
}

// BuildInfo holds build metadata injected at compile time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// ConfigErrorType categorizes configuration loading failures to aid
// debugging.
type ConfigErrorType string

const (
	// ErrSecretResolution indicates a failure resolving *_SSM_PARAM
	// pointers via the SecretProvider.
	ErrSecretResolution ConfigErrorType = "SECRET_RESOLUTION_FAILED"
	// ErrParsing indicates a failure parsing environment variable values
	// into the Config struct.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the populated Config struct failed
	// validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is the diagnostic error type returned by Load.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
