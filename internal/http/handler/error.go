package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"doclib/internal/gate"
	"doclib/internal/http/middleware"
	"doclib/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates service and gate errors into the standard
// error envelope. Unknown errors collapse to 500 without detail.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, gate.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "operator role required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrEmptyFile):
		return writeError(c, fiber.StatusBadRequest, "EMPTY_FILE", "file is empty")
	case errors.Is(err, service.ErrPayloadTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file exceeds the size limit")
	case errors.Is(err, service.ErrUnsupportedMediaType):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "file format not supported")
	case errors.Is(err, service.ErrSessionNotFound):
		return writeError(c, fiber.StatusNotFound, "SESSION_NOT_FOUND", "upload session not found or expired")
	case errors.Is(err, service.ErrMetadataMismatch):
		return writeError(c, fiber.StatusConflict, "METADATA_MISMATCH", "finalize metadata does not match upload session")
	case errors.Is(err, service.ErrObjectMissing):
		return writeError(c, fiber.StatusConflict, "OBJECT_MISSING", "object was not uploaded")
	case errors.Is(err, service.ErrInvalidOrder):
		return writeError(c, fiber.StatusConflict, "INVALID_ORDER", "submitted order does not match current documents")
	case errors.Is(err, service.ErrDirectUploadOnly):
		return writeError(c, fiber.StatusBadRequest, "DIRECT_UPLOAD_ONLY", "use the direct upload protocol")
	case errors.Is(err, service.ErrDirectUploadUnavailable):
		return writeError(c, fiber.StatusBadRequest, "DIRECT_UPLOAD_UNAVAILABLE", "direct upload is not configured")
	case errors.Is(err, service.ErrBackendUnavailable):
		return writeError(c, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage backend unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
