package credentials

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"jan-chat/internal/config"
)

// NewSource builds the credential source selected by CREDENTIALS_SOURCE.
func NewSource(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.CredentialsSource {
	case config.CredentialsSourceSSM:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSSMSource(ssm.NewFromConfig(awsCfg), cfg.CredentialsSSMPrefix)
	default:
		return NewEnvSource(), nil
	}
}
