package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`
	StaticDir       string        `json:"static_dir"`

	// Content Repository
	RepositoryURL     string        `json:"repository_url"`
	RepositoryToken   string        `json:"-"`
	RepositoryTimeout time.Duration `json:"repository_timeout"`
	FetchSize         int           `json:"fetch_size"`

	// Listing views
	ArticlesPageSize int           `json:"articles_page_size"`
	NewsPageSize     int           `json:"news_page_size"`
	SearchDebounce   time.Duration `json:"search_debounce"`

	// Redis configuration, empty URL keeps the cache in memory
	RedisURL    string        `json:"redis_url"`
	RedisPrefix string        `json:"redis_prefix"`
	CacheTTL    time.Duration `json:"cache_ttl"`

	// Dashboard editing sessions
	SessionTTL time.Duration `json:"session_ttl"`

	// Site content file with the chat script and fee schedule
	ContentFile string `json:"content_file"`

	// CloudFlare R2 image storage, used when R2Endpoint is set
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"-"`
	R2SecretKey string `json:"-"`
	R2Bucket    string `json:"r2_bucket"`
	R2PublicURL string `json:"r2_public_url"`
	MaxFileSize int64  `json:"max_file_size"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Security
	AdminAPIKey string `json:"-"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// FromEnv reads the configuration without validating it.
func FromEnv() *Config {
	return &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		StaticDir:       getEnv("STATIC_DIR", "./web/static"),

		// Content Repository
		RepositoryURL:     getEnv("REPOSITORY_URL", "http://localhost:8000/api"),
		RepositoryToken:   getEnv("REPOSITORY_TOKEN", ""),
		RepositoryTimeout: getEnvAsDuration("REPOSITORY_TIMEOUT", 30*time.Second),
		FetchSize:         getEnvAsInt("REPOSITORY_FETCH_SIZE", 500),

		// Listing views
		ArticlesPageSize: getEnvAsInt("ARTICLES_PAGE_SIZE", 6),
		NewsPageSize:     getEnvAsInt("NEWS_PAGE_SIZE", 8),
		SearchDebounce:   getEnvAsDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),

		// Redis configuration
		RedisURL:    getEnv("REDIS_URL", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "portal:"),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", time.Minute),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 30*time.Minute),

		ContentFile: getEnv("CONTENT_FILE", "./content.yaml"),

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "portal"),
		R2PublicURL: getEnv("R2_PUBLIC_URL", ""),
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 5<<20), // 5MB

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.RepositoryURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("REPOSITORY_URL %q is not an absolute URL", c.RepositoryURL))
	}
	if c.ArticlesPageSize <= 0 || c.NewsPageSize <= 0 {
		errs = append(errs, errors.New("page sizes must be positive"))
	}
	if c.Env == "production" && c.AdminAPIKey == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY is required in production"))
	}
	if c.R2Endpoint != "" && (c.R2AccessKey == "" || c.R2SecretKey == "" || c.R2PublicURL == "") {
		errs = append(errs, errors.New("R2 storage needs R2_ACCESS_KEY, R2_SECRET_ACCESS_KEY and R2_PUBLIC_URL"))
	}

	return errors.Join(errs...)
}

// UseR2 reports whether images go to R2 instead of the repository.
func (c *Config) UseR2() bool {
	return c.R2Endpoint != ""
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
