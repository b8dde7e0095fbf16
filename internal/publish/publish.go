// Package publish copies finished result files to a directory or an S3 bucket
// under <prefix>/<sweep-id>/.
package publish

import (
	"context"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/config"
)

// Uploader stores one local file under an object key.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectKey string) error
}

// LocalUploader copies files below a base directory.
type LocalUploader struct {
	basePath string
}

// NewLocal creates a LocalUploader, creating basePath if needed.
func NewLocal(basePath string) (*LocalUploader, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, bencherr.IO("publish.NewLocal", basePath, err)
	}
	return &LocalUploader{basePath: basePath}, nil
}

// Upload copies localPath to <basePath>/<objectKey>.
func (l *LocalUploader) Upload(ctx context.Context, localPath, objectKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	destPath := filepath.Join(l.basePath, filepath.FromSlash(objectKey))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return bencherr.IO("publish.Upload", destPath, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return bencherr.IO("publish.Upload", localPath, err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return bencherr.IO("publish.Upload", destPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return bencherr.IO("publish.Upload", destPath, err)
	}
	if err := dst.Close(); err != nil {
		return bencherr.IO("publish.Upload", destPath, err)
	}
	return nil
}

// PutObjectAPI is the part of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader puts files into an S3 bucket with retries.
type S3Uploader struct {
	client     PutObjectAPI
	bucket     string
	maxRetries int
	backoff    time.Duration
}

// NewS3 creates an S3Uploader from the default AWS credential chain.
func NewS3(ctx context.Context, cfg config.PublishConfig) (*S3Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, bencherr.Config("publish.NewS3", cfg.Bucket, "failed to load AWS config: %v", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		// MinIO and LocalStack need path-style addressing
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewS3WithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket), nil
}

// NewS3WithClient creates an S3Uploader with a pre-configured client.
func NewS3WithClient(client PutObjectAPI, bucket string) *S3Uploader {
	return &S3Uploader{
		client:     client,
		bucket:     bucket,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}
}

// Upload puts localPath into the bucket under objectKey.
func (s *S3Uploader) Upload(ctx context.Context, localPath, objectKey string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return bencherr.IO("publish.Upload", localPath, err)
	}
	defer file.Close()

	err = s.retryWithBackoff(ctx, func() error {
		// Reset file position for retry
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(objectKey),
			Body:        file,
			ContentType: aws.String("text/csv"),
		})
		return err
	})
	if err != nil {
		return bencherr.IO("publish.Upload", "s3://"+s.bucket+"/"+objectKey, err)
	}
	return nil
}

// retryWithBackoff executes the operation with exponential backoff retry.
func (s *S3Uploader) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if attempt < s.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * s.backoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

// Publisher uploads result files of one sweep.
type Publisher struct {
	uploader Uploader
	prefix   string
	sweepID  string
}

// New creates a Publisher writing under <prefix>/<sweepID>/.
func New(uploader Uploader, prefix, sweepID string) *Publisher {
	return &Publisher{uploader: uploader, prefix: prefix, sweepID: sweepID}
}

// FromConfig builds the uploader selected by cfg.Backend.
func FromConfig(ctx context.Context, cfg config.PublishConfig, sweepID string) (*Publisher, error) {
	var up Uploader
	var err error
	switch cfg.Backend {
	case "local", "":
		up, err = NewLocal(cfg.Dir)
	case "s3":
		up, err = NewS3(ctx, cfg)
	default:
		return nil, bencherr.Config("publish.FromConfig", cfg.Backend, "unknown publish backend")
	}
	if err != nil {
		return nil, err
	}
	return New(up, cfg.Prefix, sweepID), nil
}

// Key returns the object key of a local file.
func (p *Publisher) Key(localPath string) string {
	return path.Join(p.prefix, p.sweepID, filepath.Base(localPath))
}

// Publish uploads every file in order and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, paths ...string) error {
	for _, local := range paths {
		if err := p.uploader.Upload(ctx, local, p.Key(local)); err != nil {
			return err
		}
	}
	return nil
}
