package service

import "errors"

// Error taxonomy for the document core. Handlers translate these to HTTP
// statuses. Services never retry on their own; transient backend failures
// surface as ErrBackendUnavailable and the caller decides.
var (
	// ErrIDRequired means a required identifier argument was empty.
	ErrIDRequired = errors.New("id is required")
	// ErrNotFound means the referenced document, category, or subcategory
	// does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrReaderNil means an upload was attempted without content.
	ErrReaderNil = errors.New("reader is nil")
	// ErrEmptyFile means the declared upload size is zero or negative.
	ErrEmptyFile = errors.New("file is empty")
	// ErrPayloadTooLarge means the declared size exceeds the configured maximum.
	ErrPayloadTooLarge = errors.New("file exceeds the configured size limit")
	// ErrUnsupportedMediaType means the declared content type is not whitelisted.
	ErrUnsupportedMediaType = errors.New("file format not supported")
	// ErrSessionNotFound means finalize found no live upload session for the
	// storage key: never created, already consumed, or expired. The client
	// must restart the upload protocol.
	ErrSessionNotFound = errors.New("upload session not found or expired")
	// ErrMetadataMismatch means the finalize metadata disagrees with what was
	// declared at init, or the referenced category/subcategory disappeared in
	// the meantime.
	ErrMetadataMismatch = errors.New("finalize metadata does not match upload session")
	// ErrObjectMissing means the existence probe found no object at the
	// session's storage key; the client transfer never completed.
	ErrObjectMissing = errors.New("object not present in storage backend")
	// ErrInvalidOrder means the submitted reorder id set is not exactly the
	// scope's current membership.
	ErrInvalidOrder = errors.New("submitted order does not match scope membership")
	// ErrBackendUnavailable means a storage backend call failed or timed out.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrDirectUploadOnly means the deployment uses the external backend and
	// accepts uploads only through the presigned init/finalize protocol.
	ErrDirectUploadOnly = errors.New("this deployment accepts direct uploads only")
	// ErrDirectUploadUnavailable means the external backend is not active, so
	// the presigned upload protocol is disabled.
	ErrDirectUploadUnavailable = errors.New("direct upload backend not configured")
)
