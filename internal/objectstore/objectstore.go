// Package objectstore checks that the remote parquet files behind the mounted
// views are reachable with the configured HMAC keys, using the S3-compatible
// API that GCS exposes.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds explicit construction parameters.
type Config struct {
	Endpoint string // e.g. https://storage.googleapis.com
	Region   string // GCS accepts "auto"
	KeyID    string
	Secret   string
}

type headObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Checker issues HEAD requests for remote objects.
type Checker struct {
	client headObjectAPI
}

// New builds a Checker backed by an S3 client pointed at cfg.Endpoint.
func New(ctx context.Context, cfg Config) (*Checker, error) {
	if cfg.KeyID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("object store credentials required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Checker{client: client}, nil
}

// ParseURI splits gs://bucket/key (also gcs:// and s3://) into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", uri, err)
	}
	switch u.Scheme {
	case "gs", "gcs", "s3":
	default:
		return "", "", fmt.Errorf("unsupported scheme in %q", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("uri %q needs both bucket and key", uri)
	}
	return u.Host, key, nil
}

// Check HEADs every uri and reports all failures together.
func (c *Checker) Check(ctx context.Context, uris ...string) error {
	var errs []error
	for _, uri := range uris {
		bucket, key, err := ParseURI(uri)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, err = c.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			errs = append(errs, fmt.Errorf("head %s: %w", uri, err))
		}
	}
	return errors.Join(errs...)
}
