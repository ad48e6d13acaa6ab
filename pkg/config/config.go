package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Cache      CacheConfig      `envconfig:"CACHE"`
	Storage    StorageConfig    `envconfig:"STORAGE"`
	Classifier ClassifierConfig `envconfig:"CLASSIFIER"`
	Topic      TopicConfig      `envconfig:"TOPIC"`
	Assembly   AssemblyAIConfig `envconfig:"ASSEMBLYAI"`
	Ingest     IngestConfig     `envconfig:"INGEST"`
	JWT        JWTConfig        `envconfig:"JWT"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `split_words:"true" default:"8080"`
	Host            string   `split_words:"true" default:"0.0.0.0"`
	Environment     string   `split_words:"true" default:"development"`
	AllowedOrigins  []string `split_words:"true" default:"http://localhost:3000"`
	ShutdownTimeout int      `split_words:"true" default:"10"`
	BodyLimit       string   `split_words:"true" default:"50M"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver      string `split_words:"true" default:"postgres"` // "postgres" or "sqlite"
	Host        string `split_words:"true" default:"localhost"`
	Port        string `split_words:"true" default:"5432"`
	User        string `split_words:"true" default:"postgres"`
	Password    string `split_words:"true" default:"postgres"`
	Name        string `split_words:"true" default:"speech_insights"`
	SSLMode     string `split_words:"true" default:"disable"`
	SqlitePath  string `split_words:"true" default:"speech_insights.db"`
	MaxConns    int    `split_words:"true" default:"25"`
	MinConns    int    `split_words:"true" default:"5"`
	AutoMigrate bool   `split_words:"true" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `split_words:"true" default:"localhost"`
	Port     string `split_words:"true" default:"6379"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

// CacheConfig selects where classification results are cached
type CacheConfig struct {
	Backend string        `split_words:"true" default:"none"` // "none", "memory" or "redis"
	TTL     time.Duration `split_words:"true" default:"24h"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Enabled         bool          `split_words:"true" default:"false"`
	Endpoint        string        `split_words:"true" default:"localhost:9000"`
	AccessKeyID     string        `split_words:"true" default:"minioadmin"`
	SecretAccessKey string        `split_words:"true" default:"minioadmin"`
	BucketName      string        `split_words:"true" default:"speech-insights"`
	UseSSL          bool          `split_words:"true" default:"false"`
	PublicURL       string        `split_words:"true"`
	URLExpiry       time.Duration `split_words:"true" default:"1h"`
}

// ClassifierConfig holds the topic classification capability settings
type ClassifierConfig struct {
	Mode         string        `split_words:"true" default:"assistants"` // "assistants" or "chat"
	BaseURL      string        `split_words:"true" default:"https://api.openai.com/v1"`
	APIKey       string        `split_words:"true"`
	APIVersion   string        `split_words:"true"` // set for Azure OpenAI, e.g. 2024-05-01-preview
	Model        string        `split_words:"true" default:"gpt-4o"`
	AssistantID  string        `split_words:"true"`
	Temperature  float64       `split_words:"true" default:"1"`
	TopP         float64       `split_words:"true" default:"1"`
	PollInterval time.Duration `split_words:"true" default:"2s"`
	RunTimeout   time.Duration `split_words:"true" default:"2m"`
}

// TopicConfig holds batching and retry settings for topic modeling
type TopicConfig struct {
	BatchSize    int           `split_words:"true" default:"3"`
	MaxLength    int           `split_words:"true" default:"500"`
	MaxRetries   int           `split_words:"true" default:"3"`
	RetryBackoff time.Duration `split_words:"true" default:"2s"`
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey       string `split_words:"true"`
	LanguageCode string `split_words:"true"`
}

// IngestConfig holds audio ingestion settings
type IngestConfig struct {
	Workers int `split_words:"true" default:"2"`
}

// JWTConfig holds JWT configuration. An empty secret disables API auth.
type JWTConfig struct {
	Secret string        `split_words:"true"`
	Issuer string        `split_words:"true" default:"speech-insights"`
	Expiry time.Duration `split_words:"true" default:"720h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadUnvalidated loads configuration without the classifier checks, for
// commands that never call the classifier (migrations, token issuing)
func LoadUnvalidated() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Classifier.APIKey == "" {
		return fmt.Errorf("CLASSIFIER_API_KEY is required")
	}
	switch c.Classifier.Mode {
	case "assistants", "chat":
	default:
		return fmt.Errorf("CLASSIFIER_MODE must be assistants or chat, got %q", c.Classifier.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be none, memory or redis, got %q", c.Cache.Backend)
	}
	if c.Topic.BatchSize <= 0 {
		return fmt.Errorf("TOPIC_BATCH_SIZE must be positive")
	}
	if c.Topic.MaxLength <= 0 {
		return fmt.Errorf("TOPIC_MAX_LENGTH must be positive")
	}
	if c.Topic.MaxRetries <= 0 {
		return fmt.Errorf("TOPIC_MAX_RETRIES must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SqlitePath
	}
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
