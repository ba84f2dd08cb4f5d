// Package s3 implements storage.Backend on S3-compatible object storage.
// Objects are keyed {prefix}/{sha256}.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/pkg/crypto"
	"github.com/prn-tf/alexander-library/internal/storage"
)

// Storage stores book content as S3 objects.
type Storage struct {
	client  *s3.Client
	bucket  string
	prefix  string
	tempDir string
	logger  zerolog.Logger
}

// NewClient builds an S3 client from storage settings. Static credentials are
// used when configured, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg config.S3StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}), nil
}

// New creates an S3 backend. tempDir holds uploads while they are hashed.
func New(client *s3.Client, cfg config.S3StorageConfig, tempDir string, logger zerolog.Logger) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Storage{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		tempDir: tempDir,
		logger:  logger.With().Str("component", "s3-storage").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

// Store spools reader to a temp file to learn its hash, then uploads it
// unless an object with that hash already exists.
func (s *Storage) Store(ctx context.Context, reader io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.tempDir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hr := crypto.NewHashReader(reader)
	if _, err := io.Copy(tmp, hr); err != nil {
		return "", 0, fmt.Errorf("failed to buffer content: %w", err)
	}
	hash := hr.SHA256()

	exists, err := s.Exists(ctx, hash)
	if err != nil {
		return "", 0, err
	}
	if exists {
		s.logger.Debug().Str("hash", hash).Msg("content already stored")
		return hash, hr.Size(), nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("failed to rewind content: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(hash)),
		Body:          tmp,
		ContentLength: aws.Int64(hr.Size()),
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload content: %w", err)
	}

	s.logger.Debug().Str("hash", hash).Int64("size", hr.Size()).Msg("content stored")
	return hash, hr.Size(), nil
}

// Retrieve streams the object stored under hash.
func (s *Storage) Retrieve(ctx context.Context, hash string) (io.ReadCloser, error) {
	if !crypto.ValidateSHA256(hash) {
		return nil, storage.ErrInvalidHash
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object stored under hash.
func (s *Storage) Delete(ctx context.Context, hash string) error {
	if !crypto.ValidateSHA256(hash) {
		return storage.ErrInvalidHash
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// Exists checks whether an object is stored under hash.
func (s *Storage) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := s.GetSize(ctx, hash)
	if errors.Is(err, storage.ErrContentNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GetSize returns the size of the object stored under hash.
func (s *Storage) GetSize(ctx context.Context, hash string) (int64, error) {
	if !crypto.ValidateSHA256(hash) {
		return 0, storage.ErrInvalidHash
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, storage.ErrContentNotFound
		}
		return 0, fmt.Errorf("failed to head content: %w", err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// Ping checks that the bucket is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s unavailable: %w", s.bucket, err)
	}
	return nil
}

func (s *Storage) key(hash string) string {
	if s.prefix == "" {
		return hash
	}
	return path.Join(s.prefix, hash)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

var _ storage.Backend = (*Storage)(nil)
