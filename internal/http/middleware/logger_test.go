package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggerFields(t *testing.T) {
	out := &syncBuffer{}
	prev := logOutput
	logOutput = out
	defer func() { logOutput = prev }()

	app := fiber.New()
	app.Use(RequestID(), Identity(), Logger())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(UserIDHeader, "user-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out.String())), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLoggerConcurrentRequestsKeepLinesWhole(t *testing.T) {
	out := &syncBuffer{}
	prev := logOutput
	logOutput = out
	defer func() { logOutput = prev }()

	app := fiber.New()
	app.Use(RequestID(), Identity(), Logger())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	const n = 24
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, n)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "/ping", entry["path"])
	}
}
