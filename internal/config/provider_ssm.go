package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/sync/errgroup"

	"relaypoint/internal/types"
)

// ssmMaxBatchSize is the AWS service limit on parameters per GetParameters
// call.
const ssmMaxBatchSize = 10

// ssmMaxConcurrency caps the number of in-flight GetParameters calls so a
// large cold start does not trip SSM throttling.
const ssmMaxConcurrency = 3

// ssmClient is the subset of the SSM SDK client used by SSMProvider,
// extracted as an interface for testing with a mock client.
type ssmClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider implements SecretProvider by resolving secret values from AWS
// Systems Manager Parameter Store. This is the provider for non-local
// environments where secrets live as SecureString parameters, in the same
// region as the running worker.
type SSMProvider struct {
	region string

	// client is created lazily from the default AWS config unless injected.
	client ssmClient
}

// NewSSMProvider creates an SSMProvider for the given AWS region.
func NewSSMProvider(region string) *SSMProvider {
	return &SSMProvider{region: region}
}

// newSSMProviderWithClient injects a client, for tests.
func newSSMProviderWithClient(region string, client ssmClient) *SSMProvider {
	return &SSMProvider{region: region, client: client}
}

func (p *SSMProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return fmt.Errorf("loading AWS config for SSM (region=%s): %w", p.region, err)
	}
	p.client = ssm.NewFromConfig(cfg)
	return nil
}

// GetParametersBatch retrieves multiple SecureString parameters, decrypted.
// Keys are split into batches of ten (the SSM API limit) which are fetched
// concurrently with bounded parallelism. Parameters SSM reports as invalid
// (not found) fail the whole call, naming the missing paths.
func (p *SSMProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return make(map[string]string), nil
	}
	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		result  = make(map[string]string, len(keys))
		invalid []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ssmMaxConcurrency)

	for start := 0; start < len(keys); start += ssmMaxBatchSize {
		end := min(start+ssmMaxBatchSize, len(keys))
		batch := keys[start:end]

		g.Go(func() error {
			output, err := p.client.GetParameters(gctx, &ssm.GetParametersInput{
				Names:          batch,
				WithDecryption: aws.Bool(true),
			})
			if err != nil {
				return types.NewAppError(types.ErrCodeUpstreamSecrets,
					fmt.Sprintf("SSM GetParameters failed for %d parameters: %v", len(batch), err), err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, param := range output.Parameters {
				if param.Name != nil && param.Value != nil {
					result[*param.Name] = *param.Value
				}
			}
			invalid = append(invalid, output.InvalidParameters...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(invalid) > 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamSecrets,
			fmt.Sprintf("SSM parameters not found: %s", strings.Join(invalid, ", ")), nil)
	}
	return result, nil
}

// Compile-time assertion that SSMProvider implements SecretProvider.
var _ SecretProvider = (*SSMProvider)(nil)
