package sinks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/solita/awsutils/core"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Sink struct {
	client        s3API
	bucket        string
	prefix        string
	forceSeekable bool
}

func (s *S3Sink) Put(ctx context.Context, key string, data io.Reader) error {
	key = s.key(key)
	if s.forceSeekable {
		// If S3 endpoint uses HTTP, we need our data to be a seekable reader
		// for checksum calculations; otherwise, this should be avoided to save memory
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, data); err != nil {
			return fmt.Errorf("failed to read object data: %w", err)
		}
		data = bytes.NewReader(buf.Bytes())
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}
	return nil
}

func (s *S3Sink) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key = s.key(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object s3://%s/%s: %w", s.bucket, key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	return out.Body, nil
}

func (s *S3Sink) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

var (
	_ core.ObjectStore = (*S3Sink)(nil)
	_ s3API            = (*s3.Client)(nil)
)

func NewS3(cfg aws.Config, bucket, prefix, baseEndpoint string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	if baseEndpoint == "" {
		baseEndpoint = aws.ToString(cfg.BaseEndpoint)
	}
	forceSeekable := false
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
			o.UsePathStyle = true
			if strings.HasPrefix(baseEndpoint, "http://") {
				forceSeekable = true
			}
		}
	})
	return &S3Sink{
		client:        client,
		bucket:        bucket,
		prefix:        prefix,
		forceSeekable: forceSeekable,
	}, nil
}
