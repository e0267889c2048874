package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Package storage contains the backend abstraction over the two interchangeable
// object stores: an embedded store keeping bytes co-located with metadata, and
// an S3-compatible store reachable only through presigned URLs. The active
// backend is selected once at startup; callers never branch on the concrete type.

var (
	// ErrNotFound indicates the requested key does not exist in the backend.
	ErrNotFound = errors.New("storage: object not found")
	// ErrUnsupported indicates the active backend does not provide the
	// requested capability (e.g. presigning on the embedded store).
	ErrUnsupported = errors.New("storage: operation not supported by backend")
)

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// PresignedUpload carries everything a client needs to transfer bytes
// directly to the backend without going through this service.
type PresignedUpload struct {
	Key       string
	URL       string
	Headers   map[string]string
	ExpiresAt time.Time
}

// PresignGetOptions customize the response headers of a presigned download.
type PresignGetOptions struct {
	Filename    string
	ContentType string
	Inline      bool
}

// Backend is the uniform capability surface over the interchangeable stores.
// It is read-and-release only: writes reach the S3 backend through presigned
// URLs and the embedded store through the repository transaction that also
// commits the document record. Operations a concrete backend cannot provide
// return ErrUnsupported.
type Backend interface {
	// Read retrieves an object's content as a streaming reader alongside its info.
	Read(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists probes whether an object is present at the key.
	Exists(ctx context.Context, key string) (bool, error)
	// PresignPut returns a time-limited URL permitting a single direct PUT.
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (PresignedUpload, error)
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration, opt PresignGetOptions) (string, error)
}

// KeyPrefix is the namespace all generated object keys live under. Finalize
// rejects keys outside of it.
const KeyPrefix = "documents/"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// GenerateKey builds an object key that keeps a sanitized form of the
// original filename for operator-friendly listings.
func GenerateKey(filename string) string {
	safe := unsafeKeyChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(filename)), "-")
	safe = strings.Trim(safe, "-")
	if safe == "" {
		safe = "document"
	}
	return KeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + "-" + safe
}

// ValidKey reports whether key is inside the generated-key namespace.
func ValidKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && len(key) > len(KeyPrefix)
}
