package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// S3Config describes an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	BaseEndpoint  string
	PresignExpiry time.Duration
}

// S3Store keeps media objects in one bucket. Asset ids are object keys.
type S3Store struct {
	bucket        string
	presignExpiry time.Duration
	client        *s3.Client
	presign       *s3.PresignClient
}

// NewS3Store builds the S3 client once; no request is made.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	expiry := c.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3Store{
		bucket:        c.Bucket,
		presignExpiry: expiry,
		client:        client,
		presign:       newS3PresignClient(client),
	}, nil
}

// NewStorageKey returns a fresh object key under the lock's prefix.
func NewStorageKey(lockID int64) string {
	d := time.Now().UTC()
	return fmt.Sprintf("locks/%d/%d/%02d/%v", lockID, d.Year(), d.Month(), uuid.New())
}

// PresignUpload returns a new object key and a presigned PUT URL for it.
func (s *S3Store) PresignUpload(ctx context.Context, lockID int64) (string, string, error) {
	key := NewStorageKey(lockID)

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}

	return key, req.URL, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, assetID string, _ bool) error {
	_, err := deleteObject(s.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", assetID, err)
	}
	return nil
}
