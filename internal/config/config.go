package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the S3-compatible backend.
// Only consulted when StorageConfig.Backend is "s3".
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects and parameterizes the active storage backend.
// The backend is chosen once at startup; there is no per-request switching.
type StorageConfig struct {
	// Backend is either "embedded" (bytes co-located with metadata) or "s3".
	Backend string
	// PresignExpirySec bounds both the lifetime of presigned URLs and the
	// upload session created at init time.
	PresignExpirySec int
	// MaxUploadBytes is the maximum declared upload size.
	MaxUploadBytes int64
	// AllowedContentTypes is the upload content-type whitelist.
	AllowedContentTypes []string
}

// AllowsContentType reports whether ct is in the configured whitelist.
func (s StorageConfig) AllowsContentType(ct string) bool {
	for _, allowed := range s.AllowedContentTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Storage  StorageConfig
}

// defaultAllowedTypes matches the document formats the library accepts.
var defaultAllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			Backend:             getEnv("STORAGE_BACKEND", "embedded"),
			PresignExpirySec:    getEnvInt("PRESIGN_EXPIRY_SEC", 900),
			MaxUploadBytes:      getEnvSize("MAX_UPLOAD_SIZE", "25MB"),
			AllowedContentTypes: getEnvList("ALLOWED_CONTENT_TYPES", defaultAllowedTypes),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvSize parses human-readable byte sizes such as "25MB" or "512kB".
func getEnvSize(key, def string) int64 {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	size, err := units.FromHumanSize(v)
	if err != nil || size <= 0 {
		size, _ = units.FromHumanSize(def)
	}
	return size
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
