package e2e_harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// SeedPostgres creates a plain "people" table and inserts a handful of
// rows, matching the column shape ImportPostgresTable expects on the
// destination relational table (id, name, age).
func SeedPostgres(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS people (
  id INTEGER,
  name TEXT,
  age INTEGER
);`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	seed := []struct {
		id   int
		name string
		age  int
	}{
		{1, "Ada", 31},
		{2, "Grace", 45},
		{3, "Linus", 28},
	}
	for _, p := range seed {
		if _, err := db.ExecContext(ctx, `INSERT INTO people (id, name, age) VALUES ($1, $2, $3)`, p.id, p.name, p.age); err != nil {
			return fmt.Errorf("insert people row %d: %w", p.id, err)
		}
	}
	return nil
}

// NewS3Client builds an *s3.Client pointed at a MinIO-style endpoint
// with static credentials, path-style addressing (required by most
// self-hosted S3-compatible servers).
func NewS3Client(ctx context.Context, endpoint, accessKey, secretKey string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithBaseEndpoint(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) { o.UsePathStyle = true }), nil
}

// EnsureBucket creates bucket if it does not already exist.
func EnsureBucket(ctx context.Context, client *s3.Client, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
	}
	return fmt.Errorf("create bucket %q: %w", bucket, err)
}
