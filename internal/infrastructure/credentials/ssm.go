package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"jan-chat/internal/utils/platformerrors"
)

// ssmAPI is the part of *ssm.Client the source needs.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads keys from AWS SSM Parameter Store at <prefix>/<provider>.
type SSMSource struct {
	api    ssmAPI
	prefix string
}

var _ Source = (*SSMSource)(nil)

func NewSSMSource(api ssmAPI, prefix string) (*SSMSource, error) {
	if api == nil {
		return nil, errors.New("credentials: ssm api must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("credentials: ssm prefix is required")
	}
	return &SSMSource{api: api, prefix: prefix}, nil
}

func (s *SSMSource) APIKey(ctx context.Context, provider string) (string, error) {
	name := s.prefix + "/" + provider
	withDecryption := true
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", missingKey(ctx, provider, "parameter "+name+" not found")
		}
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"failed to read provider key from parameter store", err, "08e2c5d0-7f9e-4b1a-9d36-c1b0e9f4a258",
			map[string]any{"provider": provider, "parameter": name})
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil || strings.TrimSpace(*out.Parameter.Value) == "" {
		return "", missingKey(ctx, provider, "parameter "+name+" has no value")
	}
	return strings.TrimSpace(*out.Parameter.Value), nil
}
