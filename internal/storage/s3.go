// Package storage archives uploaded menu files to S3-compatible object
// storage. Archival is best effort and entirely optional: processing
// never depends on it.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader copies raw menu uploads into a bucket for later inspection.
type Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewUploaderFromEnv builds an Uploader from S3_* environment variables.
// It returns (nil, nil) when S3_BUCKET is unset, which disables
// archival.
func NewUploaderFromEnv(ctx context.Context) (*Uploader, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, nil
	}

	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	if endpoint != "" {
		opts = append(opts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
					if service == s3.ServiceID {
						return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
					}
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				},
			),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	return &Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
	}, nil
}

// UploadMenuFile stores one uploaded file under a unique key and returns
// its location.
func (u *Uploader) UploadMenuFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := fmt.Sprintf("menu-uploads/%s%s", uuid.New().String(), path.Ext(filename))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if u.baseURL != "" {
		return fmt.Sprintf("%s/%s", u.baseURL, key), nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key), nil
}
