package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// logOutput is swapped in tests.
var logOutput io.Writer = os.Stdout

// Logger is a middleware that logs each HTTP request in JSON format.
// Required fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - user_id (taken from context locals set by Identity middleware, when present)
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		// Collect fields after handler executed to capture final status
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		method := c.Method()
		// Use only the path segment (no query string) to match requirement naming
		path := c.Path()
		status := c.Response().StatusCode()
		latency := float64(time.Since(start).Milliseconds())

		entry := map[string]any{
			"request_id": rid,
			"method":     method,
			"path":       path,
			"status":     status,
			"latency":    latency,
		}
		if id := IdentityFromCtx(c); id.UserID != "" {
			entry["user_id"] = id.UserID
		}
		// A single Write per entry keeps concurrent log lines whole.
		if line, mErr := json.Marshal(entry); mErr == nil {
			_, _ = logOutput.Write(append(line, '\n'))
		}

		return err
	}
}
