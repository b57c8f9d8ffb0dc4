package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full server configuration
type Config struct {
	Port        string
	CORSOrigins []string

	Log       LogConfig
	CoinGecko CoinGeckoConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Rounding  RoundingConfig
	Warmer    WarmerConfig
}

// LogConfig zap logger settings
type LogConfig struct {
	Level       string
	Development bool
}

// CoinGeckoConfig configures the market data client
type CoinGeckoConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// CacheConfig selects the quote cache backend
type CacheConfig struct {
	Backend         string // memory or redis
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	QuoteTTL        time.Duration
	SearchTTL       time.Duration
	RefreshCooldown time.Duration
}

// StorageConfig saved input database
type StorageConfig struct {
	SQLitePath string
}

// AuthConfig configures the access gate. An empty AccessCode leaves the API open.
type AuthConfig struct {
	AccessCode  string
	TokenSecret string
	TokenTTL    time.Duration
}

// RoundingConfig holds decimal places per output kind; negative disables rounding.
type RoundingConfig struct {
	MoneyDecimals   int
	PriceDecimals   int
	PercentDecimals int
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// LoadDotEnv loads .env.local and .env if present. Variables already set in
// the environment are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvString("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		Log: LogConfig{
			Level:       getEnvString("LOG_LEVEL", "info"),
			Development: getEnvBool("LOG_DEVELOPMENT", false),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:    getEnvString("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:     getEnvString("COINGECKO_API_KEY", ""),
			Timeout:    getEnvDuration("COINGECKO_TIMEOUT", 15*time.Second),
			MaxRetries: getEnvInt("COINGECKO_MAX_RETRIES", 2),
		},
		Cache: CacheConfig{
			Backend:         getEnvString("CACHE_BACKEND", CacheBackendMemory),
			RedisAddr:       getEnvString("REDIS_ADDR", "localhost:6379"),
			RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
			RedisDB:         getEnvInt("REDIS_DB", 0),
			QuoteTTL:        getEnvDuration("QUOTE_TTL", time.Minute),
			SearchTTL:       getEnvDuration("SEARCH_TTL", 5*time.Minute),
			RefreshCooldown: getEnvDuration("REFRESH_COOLDOWN", 30*time.Second),
		},
		Storage: StorageConfig{
			SQLitePath: getEnvString("SQLITE_PATH", "data/cryptowise.db"),
		},
		Auth: AuthConfig{
			AccessCode:  getEnvString("ACCESS_CODE", ""),
			TokenSecret: getEnvString("TOKEN_SECRET", ""),
			TokenTTL:    getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		},
		Rounding: RoundingConfig{
			MoneyDecimals:   getEnvInt("MONEY_DECIMALS", 2),
			PriceDecimals:   getEnvInt("PRICE_DECIMALS", 8),
			PercentDecimals: getEnvInt("PERCENT_DECIMALS", 4),
		},
		Warmer: GetWarmerConfig(),
	}

	if cfg.Auth.TokenSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.TokenSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: want memory or redis", c.Cache.Backend)
	}
	if c.CoinGecko.BaseURL == "" {
		return errors.New("COINGECKO_BASE_URL must not be empty")
	}
	if c.CoinGecko.MaxRetries < 0 {
		return fmt.Errorf("COINGECKO_MAX_RETRIES must be >= 0, got %d", c.CoinGecko.MaxRetries)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
