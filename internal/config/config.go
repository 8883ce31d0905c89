package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me"

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPass      string
	DBName      string
	DBSSLMode   string
	RedisURL    string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryCloudName    string
	CloudinaryUploadFolder string

	TMDBAPIKey     string
	TMDBBaseURL    string
	TMDBRateLimit  float64
	ImportSchedule string
	ImportCount    int

	RateLimitRegister time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "movie_catalog"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "movie_catalog"),

		TMDBAPIKey:     os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:    getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		ImportSchedule: os.Getenv("IMPORT_SCHEDULE"),
	}

	// Parsing durations
	var err error
	cfg.AccessTTL, err = time.ParseDuration(getEnv("JWT_ACCESS_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TTL: %w", err)
	}
	cfg.RefreshTTL, err = time.ParseDuration(getEnv("JWT_REFRESH_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_TTL: %w", err)
	}
	cfg.RateLimitRegister, err = time.ParseDuration(getEnv("RATE_LIMIT_REGISTER", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REGISTER: %w", err)
	}

	cfg.TMDBRateLimit, err = strconv.ParseFloat(getEnv("TMDB_RATE_LIMIT", "4"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB_RATE_LIMIT: %w", err)
	}
	cfg.ImportCount, err = strconv.Atoi(getEnv("IMPORT_COUNT", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMPORT_COUNT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every binary needs.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AppEnv, validation.Required, validation.In("development", "staging", "production", "test")),
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.JWTSecret,
			validation.Required,
			validation.When(c.AppEnv == "production", validation.NotIn(defaultJWTSecret).Error("must be set in production")),
		),
		validation.Field(&c.AccessTTL, validation.Required),
		validation.Field(&c.RefreshTTL, validation.Required),
		validation.Field(&c.TMDBRateLimit, validation.Min(0.0)),
	)
}

// ValidateImporter checks the settings the TMDB import job needs on top of Validate.
func (c *Config) ValidateImporter() error {
	if c.TMDBAPIKey == "" {
		return errors.New("TMDB_API_KEY is not set")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.TMDBBaseURL, validation.Required),
		validation.Field(&c.ImportCount, validation.Min(1)),
	)
}

// DSN returns DATABASE_URL when set, otherwise builds one from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
