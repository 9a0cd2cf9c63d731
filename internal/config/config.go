package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Pricemind PricemindConfig
	Cache     CacheConfig
	ConfigDB  ConfigDBConfig
	FailureDB FailureDBConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"pricemind-sync"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	SecretKey   string `envconfig:"APP_SECRET_KEY" default:""` // encrypts API keys at rest
}

// PricemindConfig holds settings for the outbound Pricemind integration.
type PricemindConfig struct {
	DefaultBaseURL string        `envconfig:"PRICEMIND_BASE_URL" default:"https://api.pricemind.io"`
	ClientTimeout  time.Duration `envconfig:"PRICEMIND_CLIENT_TIMEOUT" default:"10s"`
	RatePerSecond  float64       `envconfig:"PRICEMIND_RATE_PER_SECOND" default:"5"`
	RateBurst      int           `envconfig:"PRICEMIND_RATE_BURST" default:"10"`
}

// CacheConfig holds channel-options cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ConfigDBConfig holds the scoped config store settings.
type ConfigDBConfig struct {
	Type string `envconfig:"CONFIG_DB_TYPE" default:"sqlite"` // sqlite, mysql, or memory
	Path string `envconfig:"CONFIG_DB_PATH" default:"./data/config.db"`
	// MySQL settings
	Host     string `envconfig:"CONFIG_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"CONFIG_DB_PORT" default:"3306"`
	Name     string `envconfig:"CONFIG_DB_NAME" default:"pricemind"`
	User     string `envconfig:"CONFIG_DB_USER" default:"root"`
	Password string `envconfig:"CONFIG_DB_PASS" default:""`
}

// FailureDBConfig holds the failed-request store settings.
type FailureDBConfig struct {
	Type string `envconfig:"FAILURE_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mongodb
	Path string `envconfig:"FAILURE_DB_PATH" default:"./data/failed_requests.db"`
	// PostgreSQL settings
	Host     string `envconfig:"FAILURE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"FAILURE_DB_PORT" default:"5432"`
	Name     string `envconfig:"FAILURE_DB_NAME" default:"pricemind"`
	User     string `envconfig:"FAILURE_DB_USER" default:"postgres"`
	Password string `envconfig:"FAILURE_DB_PASS" default:""`
	SSLMode  string `envconfig:"FAILURE_DB_SSLMODE" default:"disable"`
	// MongoDB settings
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"pricemind"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"pricemind_failed_request"`
}

// AuthConfig holds inbound API authentication settings.
type AuthConfig struct {
	APIKeys      []string `envconfig:"API_KEYS" default:""`
	JWTPublicKey string   `envconfig:"JWT_PUBLIC_KEY" default:""` // PEM, "\n" escapes allowed
}

// MySQLDSN returns the MySQL data source name.
func (d *ConfigDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// PostgresDSN returns the PostgreSQL connection string.
func (f *FailureDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		f.User, f.Password, f.Host, f.Port, f.Name, f.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Keys returns the configured API keys without blanks.
func (a *AuthConfig) Keys() []string {
	keys := make([]string, 0, len(a.APIKeys))
	for _, k := range a.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
