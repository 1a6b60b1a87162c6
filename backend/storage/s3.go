package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store stores assets in an S3 bucket. Object URLs follow the
// virtual-hosted AWS layout so stored keys stay portable across
// deployments of the same bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

func NewS3Store(endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*S3Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	log.Infof("S3 client initialized for bucket %s in region %s", bucket, region)
	return &S3Store{client: client, bucket: bucket, region: region}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}
	url := s.URL(key)
	log.Infof("Uploaded to S3: %s", url)
	return url, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		log.Warn("Empty S3 key, delete skipped.")
		return nil
	}
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		// A key that is already gone counts as deleted.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to delete %s from s3: %w", key, err)
	}
	log.Infof("Deleted from S3: s3://%s/%s", s.bucket, key)
	return nil
}

func (s *S3Store) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
