package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/kurin/blazer/b2"
)

// MediaStore is the object store holding post media.
type MediaStore interface {
	Upload(ctx context.Context, r io.Reader, objectName string) (*UploadResult, error)
	SignedURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

type UploadResult struct {
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
	SHA1       string `json:"sha1"`
}

// B2MediaService stores media in a private Backblaze B2 bucket and hands out
// time-limited download URLs.
type B2MediaService struct {
	client     *b2.Client
	bucketName string
	bucket     *b2.Bucket
}

func NewB2MediaService(ctx context.Context, keyID, applicationKey, bucketName string) (*B2MediaService, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &B2MediaService{
		client:     client,
		bucketName: bucketName,
		bucket:     bucket,
	}, nil
}

func (s *B2MediaService) Upload(ctx context.Context, r io.Reader, objectName string) (*UploadResult, error) {
	writer := s.bucket.Object(objectName).NewWriter(ctx)

	// Stream straight to B2 while hashing.
	hasher := sha1.New()
	n, err := io.Copy(io.MultiWriter(writer, hasher), r)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to upload media to B2: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close B2 writer: %w", err)
	}

	return &UploadResult{
		ObjectName: objectName,
		Size:       n,
		SHA1:       hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// SignedURL returns a download URL for objectName that expires after ttl.
func (s *B2MediaService) SignedURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	u, err := s.bucket.Object(objectName).AuthURL(ctx, ttl, "")
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return u.String(), nil
}
