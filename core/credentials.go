package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Credentials addresses one AWS account and region. It is passed by value into
// every adapter; nothing here touches process-wide state.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	// Endpoint overrides the base endpoint of every client built from the config
	// (LocalStack).
	Endpoint string
}

// AWSConfig resolves the credentials into an SDK config. Without an access key
// the default credential chain is used.
func (c Credentials) AWSConfig(ctx context.Context) (aws.Config, error) {
	opts := make([]func(*config.LoadOptions) error, 0, 3)
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, c.SessionToken),
		))
	}
	if c.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(c.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// String hides the secret parts so credentials can be logged.
func (c Credentials) String() string {
	key := ""
	if len(c.AccessKey) > 4 {
		key = c.AccessKey[:4] + "****"
	} else if c.AccessKey != "" {
		key = "****"
	}
	return fmt.Sprintf("{AccessKey:%s Region:%s Endpoint:%s}", key, c.Region, c.Endpoint)
}
