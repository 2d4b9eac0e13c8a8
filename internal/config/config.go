package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string

	DBDriver   string
	DBDSN      string
	DBMaxConns int
	ResetDB    bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret   string
	RequireAuth bool

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	NATSURL string

	RateLimit   float64
	LogLevel    string
	SwaggerHost string
	SeedFile    string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present;
// variables already set in the process environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		DBDriver:            strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:               getEnv("DB_DSN", "user:password@tcp(localhost:3306)/yariga?charset=utf8mb4&parseTime=True&loc=Local"),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 10),
		ResetDB:             getEnvBool("RESET_DB", false),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           getEnv("JWT_SECRET", "change-me"),
		RequireAuth:         getEnvBool("REQUIRE_AUTH", false),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "yariga"),
		NATSURL:             os.Getenv("NATS_URL"),
		RateLimit:           getEnvFloat("RATE_LIMIT", 20),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		SwaggerHost:         os.Getenv("SWAGGER_HOST"),
		SeedFile:            os.Getenv("SEED_FILE"),
	}
}

// Validate reports configuration that would fail later at connect time.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "mariadb", "postgres", "postgresql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	return nil
}

// CloudinaryEnabled reports whether all image host credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
