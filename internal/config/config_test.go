package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("STORAGE_BACKEND", "s3")
	os.Setenv("MAX_UPLOAD_SIZE", "50MB")
	defer func() {
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
		os.Unsetenv("STORAGE_BACKEND")
		os.Unsetenv("MAX_UPLOAD_SIZE")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, int64(50*1000*1000), cfg.Storage.MaxUploadBytes)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("STORAGE_BACKEND")
	os.Unsetenv("MAX_UPLOAD_SIZE")
	os.Unsetenv("PRESIGN_EXPIRY_SEC")
	os.Unsetenv("ALLOWED_CONTENT_TYPES")

	cfg := Load()

	assert.Equal(t, "embedded", cfg.Storage.Backend)
	assert.Equal(t, 900, cfg.Storage.PresignExpirySec)
	assert.Equal(t, int64(25*1000*1000), cfg.Storage.MaxUploadBytes)
	assert.Contains(t, cfg.Storage.AllowedContentTypes, "application/pdf")
}

func TestAllowsContentType(t *testing.T) {
	sc := StorageConfig{AllowedContentTypes: []string{"application/pdf", "text/plain"}}

	assert.True(t, sc.AllowsContentType("application/pdf"))
	assert.False(t, sc.AllowsContentType("image/png"))
	assert.False(t, sc.AllowsContentType(""))
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvSize(t *testing.T) {
	key := "TEST_SIZE_VAR"

	os.Setenv(key, "1MB")
	assert.Equal(t, int64(1000*1000), getEnvSize(key, "25MB"))

	os.Setenv(key, "invalid")
	assert.Equal(t, int64(25*1000*1000), getEnvSize(key, "25MB"))

	os.Setenv(key, "-3MB")
	assert.Equal(t, int64(25*1000*1000), getEnvSize(key, "25MB"))

	os.Unsetenv(key)
	assert.Equal(t, int64(25*1000*1000), getEnvSize(key, "25MB"))
}

func TestGetEnvList(t *testing.T) {
	key := "TEST_LIST_VAR"
	def := []string{"a", "b"}

	os.Setenv(key, "x, y ,z")
	assert.Equal(t, []string{"x", "y", "z"}, getEnvList(key, def))

	os.Setenv(key, " , ")
	assert.Equal(t, def, getEnvList(key, def))

	os.Unsetenv(key)
	assert.Equal(t, def, getEnvList(key, def))
}
