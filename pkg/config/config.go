package config

import (
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for streamlink.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// CORSOrigin is the UI origin allowed to call the API.
	CORSOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:"http://localhost:3000"`

	// Database configuration (PostgreSQL with pgvector)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (job status store; optional)
	Redis RedisConfig `yaml:"redis"`

	// External providers
	TMDB    TMDBConfig    `yaml:"tmdb"`
	YouTube YouTubeConfig `yaml:"youtube"`

	// Embedding provider selection
	Embeddings EmbeddingsConfig `yaml:"embeddings"`

	// Recommendation scoring knobs
	Recommender RecommenderConfig `yaml:"recommender"`

	// Ingest batch processing
	Ingest IngestConfig `yaml:"ingest"`

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// MockMode replaces external providers with deterministic fakes.
	MockMode bool `yaml:"mock_mode" env:"MOCK_MODE" env-default:"false"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"streamlink"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"streamlink"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis connection configuration.
// An empty host disables Redis; job status falls back to in-process storage.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// TMDBConfig holds TMDB metadata provider configuration.
type TMDBConfig struct {
	BaseURL string `yaml:"base_url" env:"TMDB_BASE_URL" env-default:"https://api.themoviedb.org/3"`
	APIKey  string `yaml:"-" env:"TMDB_API_KEY"` // Secret - not in YAML
}

// YouTubeConfig holds the OAuth client used for history ingestion.
type YouTubeConfig struct {
	ClientID     string `yaml:"client_id" env:"YOUTUBE_OAUTH_CLIENT_ID" env-default:""`
	ClientSecret string `yaml:"-" env:"YOUTUBE_OAUTH_CLIENT_SECRET"` // Secret - not in YAML
	RedirectURI  string `yaml:"redirect_uri" env:"YOUTUBE_REDIRECT_URI" env-default:"http://localhost:3000/youtube/callback"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" env:"EMBEDDINGS_PROVIDER" env-default:"openai"` // openai or mock
	Endpoint   string `yaml:"endpoint" env:"EMBEDDINGS_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model      string `yaml:"model" env:"EMBEDDINGS_MODEL" env-default:"text-embedding-3-small"`
	APIKey     string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	Dimensions int    `yaml:"dimensions" env:"EMBEDDINGS_DIMENSIONS" env-default:"1536"`
}

// RecommenderConfig holds the tunable scoring blend.
// Weights are a configuration concern, not a contract.
type RecommenderConfig struct {
	SimilarityWeight float64 `yaml:"similarity_weight" env:"RECOMMENDER_SIMILARITY_WEIGHT" env-default:"0.85"`
	RecencyWeight    float64 `yaml:"recency_weight" env:"RECOMMENDER_RECENCY_WEIGHT" env-default:"0.15"`

	// WatchWindowDays bounds which watch events contribute to the profile
	// vector. Events older than the window are ignored unless the window
	// holds no events at all.
	WatchWindowDays int `yaml:"watch_window_days" env:"RECOMMENDER_WATCH_WINDOW_DAYS" env-default:"30"`

	// ProfileHalfLifeDays enables recency weighting of the profile vector.
	// Zero means a plain mean.
	ProfileHalfLifeDays float64 `yaml:"profile_half_life_days" env:"RECOMMENDER_PROFILE_HALF_LIFE_DAYS" env-default:"0"`

	MaxRecommendations int `yaml:"max_recommendations" env:"RECOMMENDER_MAX_RECOMMENDATIONS" env-default:"20"`
}

// IngestConfig bounds parallelism of batch row processing.
type IngestConfig struct {
	Workers int `yaml:"workers" env:"INGEST_WORKERS" env-default:"4"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Recommender.SimilarityWeight < 0 || c.Recommender.RecencyWeight < 0 {
		return fmt.Errorf("recommender weights must be non-negative")
	}
	if c.Recommender.SimilarityWeight+c.Recommender.RecencyWeight == 0 {
		return fmt.Errorf("at least one recommender weight must be positive")
	}
	if c.Recommender.MaxRecommendations <= 0 {
		return fmt.Errorf("max_recommendations must be positive")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest workers must be positive")
	}
	switch c.Embeddings.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("unknown embeddings provider: %s", c.Embeddings.Provider)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
