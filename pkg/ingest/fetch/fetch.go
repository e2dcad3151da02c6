// Package fetch retrieves dataset source files from local paths or S3.
package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Fetch reads a source file into memory. Sources of the form
// s3://bucket/key are downloaded from S3 using the default AWS
// credential chain (environment variables, config files, IAM roles);
// any other source is read from the local filesystem.
func Fetch(ctx context.Context, source string) ([]byte, error) {
	if IsS3(source) {
		return fetchS3(ctx, source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return data, nil
}

// IsS3 reports whether source names an S3 object.
func IsS3(source string) bool {
	return strings.HasPrefix(source, "s3://")
}

func fetchS3(ctx context.Context, source string) ([]byte, error) {
	bucket, key, err := parseS3URL(source)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	downloader := manager.NewDownloader(s3.NewFromConfig(cfg))
	buf := manager.NewWriteAtBuffer(nil)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", source, err)
	}
	return buf.Bytes(), nil
}

// parseS3URL splits "s3://bucket/path/to/key" into bucket and key.
func parseS3URL(source string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(source, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: expected s3://bucket/key", source)
	}
	return bucket, key, nil
}
