package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

// DeleteObjects accepts at most this many keys per call.
const s3DeleteBatch = 1000

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store keeps images in any S3-compatible bucket.
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string
	log     logging.Logger
	now     func() time.Time
}

func NewS3Store(ctx context.Context, cfg S3Config, log logging.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Store(client, cfg.Bucket, cfg.PublicBaseURL, log), nil
}

func newS3Store(client s3API, bucket, baseURL string, log logging.Logger) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		now:     time.Now,
	}
}

func (s *S3Store) Upload(ctx context.Context, obj Object) (string, error) {
	key := ObjectKey(obj.Filename, obj.ContentType, s.now().UTC())

	// SigV4 over plain HTTP endpoints needs a seekable body
	body, ok := obj.Body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(obj.Body)
		if err != nil {
			return "", fmt.Errorf("S3Store.Upload: read body: %w", err)
		}
		body = bytes.NewReader(data)
		obj.Size = int64(len(data))
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("S3Store.Upload %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *S3Store) DeleteOne(ctx context.Context, url string) error {
	key, ok := KeyFromURL(s.baseURL, url)
	if !ok {
		s.log.Warn(ctx, "skipping image outside the bucket", "url", url)
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("S3Store.DeleteOne %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) DeleteMany(ctx context.Context, urls []string) error {
	ids := make([]types.ObjectIdentifier, 0, len(urls))
	for _, url := range urls {
		key, ok := KeyFromURL(s.baseURL, url)
		if !ok {
			s.log.Warn(ctx, "skipping image outside the bucket", "url", url)
			continue
		}
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
	}

	var errs []error
	for start := 0; start < len(ids); start += s3DeleteBatch {
		end := min(start+s3DeleteBatch, len(ids))
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("S3Store.DeleteMany: %w", err))
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("S3Store.DeleteMany %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}
	return errors.Join(errs...)
}
