package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Pipeline  PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration. Redis is optional; when Host is
// empty the embedding cache stays in-process.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// StorageConfig holds object storage configuration for transcript archival
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// LLMConfig holds generation provider configuration. Both providers speak
// the OpenAI-compatible chat-completions shape.
type LLMConfig struct {
	PrimaryBaseURL   string        `envconfig:"LLM_PRIMARY_BASE_URL" default:"https://api.groq.com/openai"`
	PrimaryAPIKey    string        `envconfig:"LLM_PRIMARY_API_KEY"`
	PrimaryModel     string        `envconfig:"LLM_PRIMARY_MODEL" default:"llama-3.3-70b-versatile"`
	FallbackBaseURL  string        `envconfig:"LLM_FALLBACK_BASE_URL" default:"https://api.openai.com"`
	FallbackAPIKey   string        `envconfig:"LLM_FALLBACK_API_KEY"`
	FallbackModel    string        `envconfig:"LLM_FALLBACK_MODEL" default:"gpt-4o-mini"`
	RepairModel      string        `envconfig:"LLM_REPAIR_MODEL" default:"llama-3.1-8b-instant"`
	Temperature      float64       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	MaxOutputTokens  int           `envconfig:"LLM_MAX_OUTPUT_TOKENS" default:"8000"`
	RequestTimeout   time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"90s"`
	StructuredOutput bool          `envconfig:"LLM_STRUCTURED_OUTPUT" default:"true"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	BaseURL        string        `envconfig:"EMBEDDING_BASE_URL" default:"https://api.openai.com"`
	APIKey         string        `envconfig:"EMBEDDING_API_KEY"`
	Model          string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	Dimensions     int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	RequestTimeout time.Duration `envconfig:"EMBEDDING_REQUEST_TIMEOUT" default:"30s"`
}

// PipelineConfig holds extraction pipeline tuning
type PipelineConfig struct {
	DuplicateThreshold float64
	DuplicateMaxHits   int
	ProcessingSlots    int
	JobTimeout         time.Duration
	CacheSize          int
	CacheTTL           time.Duration
	OpenItemLimit      int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meeting_scribe"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-change-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", "15m"),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", "168h"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-transcripts"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Pipeline: PipelineConfig{
			DuplicateThreshold: getEnvAsFloat("DUPLICATE_THRESHOLD", 0.85),
			DuplicateMaxHits:   getEnvAsInt("DUPLICATE_MAX_HITS", 5),
			ProcessingSlots:    getEnvAsInt("PROCESSING_SLOTS", 2),
			JobTimeout:         getEnvAsDuration("JOB_TIMEOUT", "5m"),
			CacheSize:          getEnvAsInt("EMBEDDING_CACHE_SIZE", 512),
			CacheTTL:           getEnvAsDuration("EMBEDDING_CACHE_TTL", "30m"),
			OpenItemLimit:      getEnvAsInt("OPEN_ITEM_LIMIT", 50),
		},
	}

	// Provider settings carry many knobs; let envconfig handle the tags.
	if err := envconfig.Process("", &config.LLM); err != nil {
		return nil, fmt.Errorf("failed to load LLM config: %w", err)
	}
	if err := envconfig.Process("", &config.Embedding); err != nil {
		return nil, fmt.Errorf("failed to load embedding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LLM.PrimaryAPIKey == "" {
		return fmt.Errorf("LLM_PRIMARY_API_KEY is required")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
