package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Session store and storage driver names
const (
	SessionStoreMemory = "memory"
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"

	StorageDriverPlatform = "platform"
	StorageDriverR2       = "r2"
)

type Config struct {
	Endpoint               string
	Platform               string
	ProjectID              string
	DatabaseID             string
	UserCollectionID       string
	VideoCollectionID      string
	StorageID              string
	SavedPostsCollectionID string

	RequestTimeout int // seconds

	SessionStore string
	SessionFile  string
	RedisURL     string

	StorageDriver     string
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	LogLevel  string
	LogFormat string

	// Dev server
	ServerPort       string
	DBDriver         string
	DBDSN            string
	JWTSecret        string
	SessionMaxAge    int // seconds
	SessionRateLimit int // session creations per minute per client
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		Endpoint:               getEnv("AORIFY_ENDPOINT", "https://cloud.appwrite.io/v1"),
		Platform:               getEnv("AORIFY_PLATFORM", "com.jlt.aorify"),
		ProjectID:              getEnv("AORIFY_PROJECT_ID", "666c7111002e61e81231"),
		DatabaseID:             getEnv("AORIFY_DATABASE_ID", "666c71950004336eed73"),
		UserCollectionID:       getEnv("AORIFY_USER_COLLECTION_ID", "666c724b002609013cb4"),
		VideoCollectionID:      getEnv("AORIFY_VIDEO_COLLECTION_ID", "666c71b40029d30e1bcc"),
		StorageID:              getEnv("AORIFY_STORAGE_ID", "666c72cd0038c996fde2"),
		SavedPostsCollectionID: getEnv("AORIFY_SAVED_POSTS_COLLECTION_ID", "666d512d001aa14ea296"),

		RequestTimeout: getEnvInt("AORIFY_REQUEST_TIMEOUT", 30),

		SessionStore: strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		SessionFile:  getEnv("SESSION_FILE", ".aorify-session"),
		RedisURL:     os.Getenv("REDIS_URL"),

		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPlatform)),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:            getEnv("DB_DSN", "file:aorify-dev.db?_foreign_keys=on"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SessionMaxAge:    getEnvInt("SESSION_MAX_AGE", 31536000),
		SessionRateLimit: getEnvInt("SESSION_RATE_LIMIT", 10),
	}

	return cfg, nil
}

// Validate reports the first missing platform identifier or unknown driver.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"AORIFY_ENDPOINT", c.Endpoint},
		{"AORIFY_PLATFORM", c.Platform},
		{"AORIFY_PROJECT_ID", c.ProjectID},
		{"AORIFY_DATABASE_ID", c.DatabaseID},
		{"AORIFY_USER_COLLECTION_ID", c.UserCollectionID},
		{"AORIFY_VIDEO_COLLECTION_ID", c.VideoCollectionID},
		{"AORIFY_STORAGE_ID", c.StorageID},
		{"AORIFY_SAVED_POSTS_COLLECTION_ID", c.SavedPostsCollectionID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("missing %s", r.name)
		}
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreFile:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("SESSION_STORE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	switch c.StorageDriver {
	case StorageDriverPlatform:
	case StorageDriverR2:
		if c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2BucketName == "" || c.R2PublicURL == "" {
			return fmt.Errorf("missing Cloudflare R2 configuration")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
