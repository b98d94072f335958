package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/jackc/pgx/v5"
)

// SSMClient defines the subset of the AWS SSM API the bootstrap tool uses.
// The interface enables unit testing with mocks without a live AWS or
// LocalStack connection.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParamSpec describes one SSM parameter the notify worker requires. EnvVar
// is both the local source variable read during seeding and the name the
// worker's *_SSM_PARAM pointer resolves at runtime.
type ParamSpec struct {
	// Path is the parameter path relative to the environment prefix,
	// e.g. "spool/database_url".
	Path string

	EnvVar string
	Secret bool
}

// requiredParams lists everything the notify worker resolves from SSM.
var requiredParams = []ParamSpec{
	{Path: "spool/database_url", EnvVar: "SPOOL_DATABASE_URL", Secret: true},
	{Path: "queue/report_events", EnvVar: "SQS_REPORT_EVENTS"},
	{Path: "queue/envelopes", EnvVar: "SQS_ENVELOPES"},
}

// ssmOperationTimeout is the per-operation timeout for SSM API calls.
const ssmOperationTimeout = 15 * time.Second

// ParamManager wraps the SSM client with environment-aware path
// construction and logging.
type ParamManager struct {
	client SSMClient
	env    string
	logger *slog.Logger
}

func NewParamManager(client SSMClient, env string, logger *slog.Logger) *ParamManager {
	return &ParamManager{client: client, env: env, logger: logger}
}

// ParamPath constructs the absolute SSM path for a spec:
//
//	/{environment}/relaypoint/{path}
func (m *ParamManager) ParamPath(spec ParamSpec) string {
	return fmt.Sprintf("/%s/relaypoint/%s", m.env, spec.Path)
}

// Exists checks whether a parameter is already present at the given path.
// WithDecryption is off: probing for existence must not require kms:Decrypt.
func (m *ParamManager) Exists(ctx context.Context, path string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	_, err := m.client.GetParameter(opCtx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(false),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("probing SSM parameter %q: %w", path, err)
	}
	return true, nil
}

// Write stores a parameter value, as SecureString for secret parameters.
func (m *ParamManager) Write(ctx context.Context, spec ParamSpec, value string, overwrite bool) error {
	opCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	paramType := ssmtypes.ParameterTypeString
	if spec.Secret {
		paramType = ssmtypes.ParameterTypeSecureString
	}

	path := m.ParamPath(spec)
	_, err := m.client.PutParameter(opCtx, &ssm.PutParameterInput{
		Name:      aws.String(path),
		Value:     aws.String(value),
		Type:      paramType,
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		return fmt.Errorf("writing SSM parameter %q: %w", path, err)
	}

	m.logger.Info("SSM parameter written",
		"path", path,
		"secure", spec.Secret,
		"value_length", len(value),
	)
	return nil
}

// SeedAll writes every required parameter whose source environment variable
// is set. Existing parameters are left alone unless overwrite is true.
// It returns the number of parameters written and skipped.
func SeedAll(ctx context.Context, mgr *ParamManager, lookupEnv func(string) (string, bool), overwrite bool) (int, int, error) {
	written, skipped := 0, 0
	for _, spec := range requiredParams {
		value, ok := lookupEnv(spec.EnvVar)
		if !ok || value == "" {
			mgr.logger.Warn("source variable unset, skipping parameter",
				"env_var", spec.EnvVar,
				"path", mgr.ParamPath(spec),
			)
			skipped++
			continue
		}

		if !overwrite {
			exists, err := mgr.Exists(ctx, mgr.ParamPath(spec))
			if err != nil {
				return written, skipped, err
			}
			if exists {
				mgr.logger.Info("parameter already present, skipping",
					"path", mgr.ParamPath(spec),
				)
				skipped++
				continue
			}
		}

		if err := mgr.Write(ctx, spec, value, overwrite); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

// DatabaseConnector abstracts the spool reachability probe for testing.
type DatabaseConnector interface {
	Connect(ctx context.Context, dsn string) error
}

// PgxConnector verifies a DSN by opening and immediately closing a
// connection. The point is to prove the DSN is reachable and the
// credentials are valid, not to hold a connection open.
type PgxConnector struct{}

func (c *PgxConnector) Connect(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	return conn.Close(ctx)
}

// ValidateAll checks that every required parameter exists in SSM. When the
// spool database URL is available in the local environment it additionally
// probes database reachability.
func ValidateAll(ctx context.Context, mgr *ParamManager, db DatabaseConnector, lookupEnv func(string) (string, bool)) error {
	var missing []string
	for _, spec := range requiredParams {
		path := mgr.ParamPath(spec)
		exists, err := mgr.Exists(ctx, path)
		if err != nil {
			return err
		}
		if !exists {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing SSM parameters: %s", strings.Join(missing, ", "))
	}

	if dsn, ok := lookupEnv("SPOOL_DATABASE_URL"); ok && dsn != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.Connect(probeCtx, dsn); err != nil {
			return fmt.Errorf("spool database unreachable: %w", err)
		}
		mgr.logger.Info("spool database reachable")
	}

	return nil
}
