package pub

import (
	"context"
	"fmt"
	"os"

	"hookstate/internal/ports"
	"hookstate/internal/settings"
	"hookstate/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/nats-io/nats.go"
)

const (
	PublisherSNS  = "sns"
	PublisherNATS = "nats"

	SNSEndpointKey = "SNS_ENDPOINT"
	NATSURLKey     = "NATS_URL"
)

// FromEnv constructs the change Publisher named by kind. An empty kind means no publisher
// and returns (nil,nil).
func FromEnv(ctx context.Context, kind string) (ports.Publisher, error) {
	switch kind {
	case "":
		return nil, nil
	case PublisherSNS:
		return snsFromEnv(ctx)
	case PublisherNATS:
		conn, err := nats.Connect(settings.Getenv(NATSURLKey, nats.DefaultURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		return NewNATS(conn), nil
	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "unknown publisher %q", kind)
	}
}

func snsFromEnv(ctx context.Context) (ports.Publisher, error) {
	var snsEndpoint *string
	if se := os.Getenv(SNSEndpointKey); se != "" {
		snsEndpoint = aws.String(se)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if snsEndpoint != nil {
			o.BaseEndpoint = snsEndpoint
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
		}
	})
	return NewSNS(snsClient), nil
}
