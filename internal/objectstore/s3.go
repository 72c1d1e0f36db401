// Package objectstore uploads media blobs to S3 and hands back shareable links.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by Uploader.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	PutObjectAcl(ctx context.Context, params *s3.PutObjectAclInput, optFns ...func(*s3.Options)) (*s3.PutObjectAclOutput, error)
}

// UploadResult identifies a stored object and its shareable link.
type UploadResult struct {
	Key  string
	Link string
}

// Uploader stores image blobs in an S3 bucket under an optional key prefix.
type Uploader struct {
	bucket    string
	region    string
	keyPrefix string
	s3Client  S3API
	logger    *slog.Logger
}

// NewUploader creates an Uploader. keyPrefix plays the role of a target
// folder and may be empty.
func NewUploader(s3Client S3API, bucket, region, keyPrefix string, logger *slog.Logger) *Uploader {
	if s3Client == nil {
		panic("objectstore: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("objectstore: bucket cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		bucket:    bucket,
		region:    region,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		s3Client:  s3Client,
		logger:    logger,
	}
}

// ImageFilename generates the timestamped object name for an uploaded image.
func ImageFilename(t time.Time) string {
	return fmt.Sprintf("image_%s.jpg", t.UTC().Format("20060102_150405"))
}

// Upload stores the blob and returns its key and a stable https link.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename string) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("objectstore: empty payload for %s", filename)
	}

	key := filename
	if u.keyPrefix != "" {
		key = u.keyPrefix + "/" + filename
	}

	_, err := u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: s3 put %s: %w", key, err)
	}

	u.logger.Info("uploaded image to S3", "bucket", u.bucket, "key", key, "bytes", len(data))

	return &UploadResult{
		Key:  key,
		Link: u.objectURL(key),
	}, nil
}

// SetPublicReadable marks the object public-read. Best effort: a failure is
// logged and reported as false, but the object and its link remain usable.
func (u *Uploader) SetPublicReadable(ctx context.Context, key string) bool {
	_, err := u.s3Client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		u.logger.Warn("failed to set public-read on object", "error", err, "key", key)
		return false
	}
	return true
}

func (u *Uploader) objectURL(key string) string {
	if u.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
