package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the companion server configuration.
type Config struct {
	// Server settings
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL settings
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	MigrationsDir string        `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	// Secret field, loaded from a secret file, no envconfig tag
	DBPassword string

	// Redis settings (turn lock leases)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TurnLockTTL   time.Duration `envconfig:"TURN_LOCK_TTL" default:"90s"`
	RedisPassword string

	// RabbitMQ settings
	RabbitMQURL    string `envconfig:"RABBITMQ_URL" required:"true"`
	TurnEventQueue string `envconfig:"TURN_EVENT_QUEUE" default:"companion_turn_events"`

	// AI settings
	AIProvider        string  `envconfig:"AI_PROVIDER" default:"openai"` // openai or ollama
	AIModel           string  `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AIBaseURL         string  `envconfig:"AI_BASE_URL" default:""` // override for OpenAI-compatible APIs
	OllamaURL         string  `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	AITemperature     float64 `envconfig:"AI_TEMPERATURE" default:"0.8"`
	AIMaxTokens       int     `envconfig:"AI_MAX_TOKENS" default:"600"`
	PromptTokenBudget int     `envconfig:"PROMPT_TOKEN_BUDGET" default:"3000"`
	// Secret field, loaded from a secret file, no envconfig tag
	AIAPIKey string

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// JWT verification secret (tokens are issued by the identity provider)
	// Secret field, loaded from a secret file, no envconfig tag
	JWTSecret string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load companion-server config: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	// The key is only required for the hosted provider; ollama runs without one.
	if cfg.AIProvider != "ollama" {
		cfg.AIAPIKey, loadErr = ReadSecret("ai_api_key")
		if loadErr != nil {
			return nil, loadErr
		}
	}

	// Redis may run without auth in local setups.
	cfg.RedisPassword, _ = ReadSecret("redis_password")

	return &cfg, nil
}
