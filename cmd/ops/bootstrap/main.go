// Package main implements the bootstrap CLI for the relaypoint notify
// subsystem.
//
// The tool populates AWS SSM Parameter Store with the configuration values
// the notify worker resolves at startup (spool database URL and queue URLs),
// probing for existing parameters before writing so re-runs are safe. With
// --validate it only checks that every required parameter exists and that
// the spool database is reachable.
//
// Usage:
//
//	go run ./cmd/ops/bootstrap --env=dev
//	go run ./cmd/ops/bootstrap --env=dev --validate
//	go run ./cmd/ops/bootstrap --env=prod --region=us-east-1 --overwrite
//
// Parameter values are taken from the local environment (SPOOL_DATABASE_URL,
// SQS_REPORT_EVENTS, SQS_ENVELOPES); a parameter whose source variable is
// unset is skipped with a warning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var validEnvironments = map[string]bool{
	"dev":     true,
	"staging": true,
	"prod":    true,
}

func main() {
	envFlag := flag.String("env", "", "target environment (dev/staging/prod)")
	regionFlag := flag.String("region", "us-east-1", "AWS region")
	validateFlag := flag.Bool("validate", false, "only check parameters, write nothing")
	overwriteFlag := flag.Bool("overwrite", false, "overwrite parameters that already exist")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if !validEnvironments[*envFlag] {
		fmt.Fprintf(os.Stderr, "invalid --env %q: must be dev, staging, or prod\n", *envFlag)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(*regionFlag))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	mgr := NewParamManager(ssm.NewFromConfig(awsCfg), *envFlag, logger)

	if *validateFlag {
		if err := ValidateAll(ctx, mgr, &PgxConnector{}, os.LookupEnv); err != nil {
			logger.Error("validation failed", "error", err)
			os.Exit(1)
		}
		logger.Info("all parameters present", "env", *envFlag)
		return
	}

	written, skipped, err := SeedAll(ctx, mgr, os.LookupEnv, *overwriteFlag)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	logger.Info("bootstrap complete",
		"env", *envFlag,
		"written", written,
		"skipped", skipped,
	)
}
