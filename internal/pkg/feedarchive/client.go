package feedarchive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// objectPutter is the part of the S3 API the archive needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client stores raw feed snapshots in an S3 bucket
type Client struct {
	s3     objectPutter
	config *Config
	now    func() time.Time
}

// NewClient creates an archive client for an enabled configuration
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("feed archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[FeedArchive] Archiving feed snapshots to bucket: %s", cfg.BucketName)
	return newClient(s3Client, cfg), nil
}

func newClient(s3Client objectPutter, cfg *Config) *Client {
	return &Client{s3: s3Client, config: cfg, now: time.Now}
}

// Archive uploads the raw feed of a sync run
func (c *Client) Archive(ctx context.Context, runID string, raw []byte) error {
	key := c.config.ObjectKey(runID, c.now())
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(raw),
		ContentLength: aws.Int64(int64(len(raw))),
		ContentType:   aws.String("application/json"),
		Metadata: map[string]string{
			"run-id": runID,
		},
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", c.config.BucketName, key, err)
	}

	log.Infof("[FeedArchive] Stored feed snapshot s3://%s/%s (%d bytes)", c.config.BucketName, key, len(raw))
	return nil
}
