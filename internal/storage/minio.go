package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"doclib/internal/config"
)

// minioBackend implements Backend against an S3-compatible store (MinIO, AWS
// S3, etc.). Bytes travel exclusively over presigned URLs; the service itself
// only presigns, probes and deletes. It is safe for concurrent use by
// multiple goroutines.
type minioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates the S3-compatible backend.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	mb := &minioBackend{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return mb, nil
}

// Read is not available: downloads are served through presigned GET URLs.
func (m *minioBackend) Read(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	return nil, ObjectInfo{}, ErrUnsupported
}

// Delete removes an object by key. Missing keys are treated as deleted.
func (m *minioBackend) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// Exists probes the object with a stat call (equivalent of HEAD).
func (m *minioBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignPut generates a pre-signed PUT URL bound to the declared content type.
// The client must send the returned headers verbatim or the signature breaks.
func (m *minioBackend) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (PresignedUpload, error) {
	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	u, err := m.client.PresignHeader(ctx, http.MethodPut, m.bucket, key, expiry, url.Values{}, headers)
	if err != nil {
		return PresignedUpload{}, err
	}
	required := make(map[string]string, len(headers))
	for k := range headers {
		required[k] = headers.Get(k)
	}
	return PresignedUpload{
		Key:       key,
		URL:       u.String(),
		Headers:   required,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// PresignGet generates a pre-signed GET URL, optionally forcing the response
// content disposition and type for browser-friendly downloads.
func (m *minioBackend) PresignGet(ctx context.Context, key string, expiry time.Duration, opt PresignGetOptions) (string, error) {
	params := url.Values{}
	if opt.Filename != "" {
		disposition := "attachment"
		if opt.Inline {
			disposition = "inline"
		}
		safe := strings.ReplaceAll(opt.Filename, `"`, "")
		params.Set("response-content-disposition", fmt.Sprintf("%s; filename=%q", disposition, safe))
	}
	if opt.ContentType != "" {
		params.Set("response-content-type", opt.ContentType)
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
