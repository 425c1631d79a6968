package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"

	BlobStoreLocal = "local"
	BlobStoreS3    = "s3"

	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	APIPort string

	SessionSecret []byte
	SessionTTL    time.Duration
	SessionStore  string
	CookieSecure  bool

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ModeratorUsername string

	BlobStore       string
	UploadsDir      string
	UploadsBaseURL  string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
	S3UsePathStyle  bool

	MaxImagesPerRequest int
	MaxImageSizeBytes   int64

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the process environment. The returned
// error lists every missing or invalid value.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:             getEnv("API_PORT", getEnv("PORT", "8080")),
		SessionSecret:       []byte(getEnv("SESSION_SECRET", "")),
		SessionTTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionStore:        strings.ToLower(getEnv("SESSION_STORE", SessionStoreDatabase)),
		CookieSecure:        getEnvAsBool("COOKIE_SECURE", false),
		DBDriver:            getEnv("DB_DRIVER", DriverPostgres),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", ""),
		DBName:              getEnv("DB_NAME", "alugabv"),
		DBSslMode:           getEnv("DB_SSLMODE", "disable"),
		DBConnStr:           getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		ModeratorUsername:   strings.TrimSpace(getEnv("MODERATOR_USERNAME", "")),
		BlobStore:           strings.ToLower(getEnv("BLOB_STORE", BlobStoreLocal)),
		UploadsDir:          getEnv("UPLOADS_DIR", "uploads"),
		UploadsBaseURL:      strings.TrimRight(getEnv("UPLOADS_BASE_URL", "/uploads"), "/"),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:         getEnv("S3_SECRET_KEY", ""),
		S3PublicBaseURL:     strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		S3UsePathStyle:      getEnvAsBool("S3_USE_PATH_STYLE", false),
		MaxImagesPerRequest: getEnvAsInt("MAX_IMAGES_PER_REQUEST", 5),
		MaxImageSizeBytes:   int64(getEnvAsInt("MAX_IMAGE_SIZE_MB", 10)) << 20,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = cfg.defaultConnStr()
	}
	return cfg, nil
}

// defaultConnStr builds the DSN from the DB_* variables when DATABASE_URL is unset.
func (c *Config) defaultConnStr() string {
	if c.DBDriver == DriverSQLite {
		return "alugabv.db"
	}
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSslMode
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be set to at least 16 bytes"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_HOURS must be positive"))
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBConnStr == "" && c.DBPassword == "" {
			errs = append(errs, errors.New("DATABASE_URL or DB_PASSWORD is required when DB_DRIVER=pgx"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported (use %s or %s)", c.DBDriver, DriverPostgres, DriverSQLite))
	}
	switch c.SessionStore {
	case SessionStoreDatabase:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE %q is not supported (use %s or %s)", c.SessionStore, SessionStoreDatabase, SessionStoreRedis))
	}
	switch c.BlobStore {
	case BlobStoreLocal:
		if c.UploadsDir == "" {
			errs = append(errs, errors.New("UPLOADS_DIR is required when BLOB_STORE=local"))
		}
	case BlobStoreS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when BLOB_STORE=s3"))
		}
		if c.S3PublicBaseURL == "" {
			errs = append(errs, errors.New("S3_PUBLIC_BASE_URL is required when BLOB_STORE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_STORE %q is not supported (use %s or %s)", c.BlobStore, BlobStoreLocal, BlobStoreS3))
	}
	if c.MaxImagesPerRequest <= 0 {
		errs = append(errs, errors.New("MAX_IMAGES_PER_REQUEST must be positive"))
	}
	if c.MaxImageSizeBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_SIZE_MB must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
