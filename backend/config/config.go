package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret   string
	JWTTTLHours int

	ServerPort  string
	LogMode     string
	CORSOrigins string
	BodyLimitMB int

	MediaDriver        string // gcs or memory
	MediaBucket        string
	MediaBaseURL       string
	GCSCredentialsFile string
	ImageMaxWidth      int
	ImageMaxHeight     int

	RedisAddr      string
	RedisPassword  string
	LookupCacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "classmarket"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "classmarket.db"),

		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 72),

		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", "dev"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 200),

		MediaDriver:        strings.ToLower(getEnv("MEDIA_DRIVER", "memory")),
		MediaBucket:        getEnv("MEDIA_BUCKET", ""),
		MediaBaseURL:       getEnv("MEDIA_BASE_URL", "http://localhost:8080/media/"),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		ImageMaxWidth:      getEnvInt("IMAGE_MAX_WIDTH", 1600),
		ImageMaxHeight:     getEnvInt("IMAGE_MAX_HEIGHT", 1600),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		LookupCacheTTL: getEnvDuration("LOOKUP_CACHE_TTL", 10*time.Minute),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
