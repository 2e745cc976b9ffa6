package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"banner-editor/internal/image"
)

// S3Store uploads to an S3 compatible bucket, such as Supabase Storage.
type S3Store struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Store builds a client from the default AWS config chain. A custom
// endpoint switches to path-style addressing, which S3 compatible services
// expect.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := opts.PublicBaseURL
	if baseURL == "" && opts.Endpoint != "" {
		baseURL = joinURL(opts.Endpoint, opts.Bucket)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, cfg.Region)
	}
	return NewS3StoreFromClient(client, opts.Bucket, opts.Prefix, baseURL), nil
}

// NewS3StoreFromClient wraps an existing client.
func NewS3StoreFromClient(client *s3.Client, bucket, prefix, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, baseURL: baseURL}
}

// Upload puts the asset and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, asset *image.CroppedAsset) (string, error) {
	key := objectKey(s.prefix, asset.FileName())
	log := logrus.WithFields(logrus.Fields{
		"device": asset.Device.String(),
		"bucket": s.bucket,
		"key":    key,
	})

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(asset.Data),
		ContentType:   aws.String(asset.ContentType()),
		ContentLength: aws.Int64(int64(len(asset.Data))),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		log.WithError(err).Error("Failed to upload asset")
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Info("Asset uploaded")
	return joinURL(s.baseURL, key), nil
}
