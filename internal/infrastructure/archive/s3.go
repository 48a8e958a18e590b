package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/statload/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// s3API is the part of *s3.Client the archive uses
type s3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores files as objects <prefix><source>/<name> in one bucket.
// It works with any S3-compatible store (AWS, MinIO, Supabase storage).
type S3 struct {
	client s3API
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3 creates an S3 archive from configuration
func NewS3(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("archive access key and secret key are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3WithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3WithClient(client s3API, bucket, prefix string, logger *zap.Logger) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix, logger: logger.Named("archive")}
}

// normalizeEndpoint adds a scheme to bare host:port endpoints. An empty
// endpoint means AWS itself.
func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid archive endpoint: %w", err)
	}
	return endpoint, nil
}

func (s *S3) key(source, name string) string {
	return s.prefix + source + "/" + name
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *S3) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

// isNotFound also matches the error strings some S3-compatible services
// return instead of typed errors.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	return strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey")
}

// Exists implements Archive
func (s *S3) Exists(ctx context.Context, source, name string) (bool, error) {
	return s.objectExists(ctx, s.key(source, name))
}

// Imported implements Archive
func (s *S3) Imported(ctx context.Context, source, name string) (bool, error) {
	return s.objectExists(ctx, s.key(source, ImportedName(name)))
}

// Open implements Archive
func (s *S3) Open(ctx context.Context, source, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(source, name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", source, name, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

// Create implements Archive. The content is spooled to a temporary file
// so PutObject gets a seekable body of known length.
func (s *S3) Create(ctx context.Context, source, name string) (io.WriteCloser, error) {
	tmp, err := os.CreateTemp("", "statload-archive-*")
	if err != nil {
		return nil, err
	}
	return &s3Upload{File: tmp, ctx: ctx, archive: s, key: s.key(source, name)}, nil
}

type s3Upload struct {
	*os.File
	ctx     context.Context
	archive *S3
	key     string
	closed  bool
}

func (u *s3Upload) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	defer os.Remove(u.Name())
	defer u.File.Close()

	if _, err := u.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := u.archive.client.PutObject(u.ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.archive.bucket),
		Key:    aws.String(u.key),
		Body:   u.File,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// MarkImported implements Archive with copy then delete
func (s *S3) MarkImported(ctx context.Context, source, name string) error {
	from, to := s.key(source, name), s.key(source, ImportedName(name))
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(url.PathEscape(s.bucket) + "/" + escapeKey(from)),
		Key:        aws.String(to),
	})
	if err != nil {
		return fmt.Errorf("mark %s imported: %w", name, err)
	}
	return s.deleteKey(ctx, from)
}

// escapeKey escapes each path segment of an object key
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Remove implements Archive
func (s *S3) Remove(ctx context.Context, source, name string) error {
	return s.deleteKey(ctx, s.key(source, name))
}

func (s *S3) deleteKey(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

var _ Archive = (*S3)(nil)
