package fota

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// S3Client streams images from S3, treating the locator host as the
// bucket and the path as the object key.
type S3Client struct {
	s3Client     *s3.Client
	fragmentSize int
}

// NewS3Client builds a download client over the default AWS config.
// Public firmware buckets work with anonymous credentials.
func NewS3Client(ctx context.Context, region string, anonymous bool, fragmentSize int) (*S3Client, error) {
	slog.Info("s3_client_init", "region", region, "anonymous", anonymous)

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if anonymous {
		opts = append(opts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, errors.Wrap(err, "load AWS config")
	}

	return &S3Client{
		s3Client:     s3.NewFromConfig(cfg),
		fragmentSize: fragmentSize,
	}, nil
}

// Start fetches the object and streams its body on its own goroutine.
func (c *S3Client) Start(ctx context.Context, host, path string, sink io.Writer, notify NotifyFunc) error {
	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(host),
		Key:    aws.String(path),
	})
	if err != nil {
		slog.Error("s3_get_object_failed", "bucket", host, "key", path, "error", err)
		return errors.Wrap(err, "get object from S3")
	}

	total := aws.ToInt64(result.ContentLength)
	slog.Info("download_started", "bucket", host, "key", path, "content_length", total)

	go func() {
		defer result.Body.Close()
		pump(ctx, result.Body, total, c.fragmentSize, sink, notify)
	}()
	return nil
}
