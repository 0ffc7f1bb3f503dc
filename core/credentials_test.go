package core

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAWSConfig_StaticCredentials(t *testing.T) {
	creds := Credentials{
		AccessKey: "AKIAEXAMPLE",
		SecretKey: "secret",
		Region:    "eu-north-1",
	}

	cfg, err := creds.AWSConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eu-north-1", cfg.Region)

	v, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", v.AccessKeyID)
	assert.Equal(t, "secret", v.SecretAccessKey)
}

func TestAWSConfig_EndpointAppliesToEveryClient(t *testing.T) {
	creds := Credentials{
		AccessKey: "AKIAEXAMPLE",
		SecretKey: "secret",
		Region:    "eu-north-1",
		Endpoint:  "http://localhost:4566",
	}

	cfg, err := creds.AWSConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, aws.String("http://localhost:4566"), cfg.BaseEndpoint)

	cw := cloudwatch.NewFromConfig(cfg)
	assert.Equal(t, aws.String("http://localhost:4566"), cw.Options().BaseEndpoint)
}

func TestAWSConfig_NoEndpoint(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_URL", "")
	cfg, err := Credentials{Region: "eu-north-1"}.AWSConfig(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg.BaseEndpoint)
}

func TestCredentials_StringHidesSecrets(t *testing.T) {
	creds := Credentials{AccessKey: "AKIAEXAMPLE", SecretKey: "topsecret", Region: "us-east-1"}

	s := creds.String()
	assert.NotContains(t, s, "topsecret")
	assert.NotContains(t, s, "AKIAEXAMPLE")
	assert.Contains(t, s, "AKIA****")
	assert.Contains(t, s, "us-east-1")
}
