package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	WebPort                 int           `mapstructure:"WEB_PORT"`
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	StoreDriver             string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL             string        `mapstructure:"DATABASE_URL"`
	SQLitePath              string        `mapstructure:"SQLITE_PATH"`
	SeedDefaultEntry        bool          `mapstructure:"SEED_DEFAULT_ENTRY"`
	OracleProvider          string        `mapstructure:"ORACLE_PROVIDER"`
	GeminiAPIKey            string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel             string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL           string        `mapstructure:"GEMINI_BASE_URL"`
	OracleHost              string        `mapstructure:"ORACLE_HOST"`
	OracleAPIKey            string        `mapstructure:"ORACLE_API_KEY"`
	OracleModel             string        `mapstructure:"ORACLE_MODEL"`
	OracleTimeoutSeconds    int           `mapstructure:"ORACLE_TIMEOUT"`
	OracleTimeout           time.Duration `mapstructure:"-"`
	MatchCutoff             int           `mapstructure:"MATCH_CUTOFF"`
	RateLimitRequestsPerMin int           `mapstructure:"RATE_LIMIT_REQUESTS_PER_MIN"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	RateLimitMaxClients     int           `mapstructure:"RATE_LIMIT_MAX_CLIENTS"`
	ShutdownTimeoutSeconds  int           `mapstructure:"SHUTDOWN_TIMEOUT"`
	ShutdownTimeout         time.Duration `mapstructure:"-"`
	CORSAllowedOrigins      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies          string        `mapstructure:"TRUSTED_PROXIES"`
}

// Store drivers understood by database.Open.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Oracle providers understood by llmclient.New.
const (
	OracleProviderGemini = "gemini"
	OracleProviderOpenAI = "openai"
	OracleProviderNone   = "none"
)

func Load(logger *zap.Logger) *Config {
	cfg, err := load(viper.New(), logger)
	if err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func load(v *viper.Viper, logger *zap.Logger) (*Config, error) {
	var config Config
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from docker subdir
	v.AddConfigPath("./config") // Common config folder
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("WEB_PORT", 5000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverSQLite)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "chat.db")
	v.SetDefault("SEED_DEFAULT_ENTRY", true)
	v.SetDefault("ORACLE_PROVIDER", OracleProviderGemini)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("ORACLE_HOST", "")
	v.SetDefault("ORACLE_API_KEY", "")
	v.SetDefault("ORACLE_MODEL", "")
	v.SetDefault("ORACLE_TIMEOUT", 8)
	v.SetDefault("MATCH_CUTOFF", 70)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_MIN", 30)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 10)
	v.SetDefault("RATE_LIMIT_MAX_CLIENTS", 4096)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("TRUSTED_PROXIES", "")

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The browser client historically shipped the key under its Vite name.
	if config.GeminiAPIKey == "" {
		config.GeminiAPIKey = strings.TrimSpace(v.GetString("VITE_GEMINI_API_KEY"))
	}

	config.StoreDriver = strings.ToLower(strings.TrimSpace(config.StoreDriver))
	config.OracleProvider = strings.ToLower(strings.TrimSpace(config.OracleProvider))
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))

	if config.MatchCutoff < 0 {
		config.MatchCutoff = 0
	}
	if config.MatchCutoff > 100 {
		config.MatchCutoff = 100
	}
	if config.RateLimitMaxClients <= 0 {
		config.RateLimitMaxClients = 4096
	}

	// Convert seconds to proper time.Duration
	if config.OracleTimeoutSeconds <= 0 {
		config.OracleTimeoutSeconds = 8
	}
	if config.ShutdownTimeoutSeconds <= 0 {
		config.ShutdownTimeoutSeconds = 10
	}
	config.OracleTimeout = time.Duration(config.OracleTimeoutSeconds) * time.Second
	config.ShutdownTimeout = time.Duration(config.ShutdownTimeoutSeconds) * time.Second

	return &config, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas. Empty means any origin.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxyList splits TRUSTED_PROXIES (IPs or CIDRs) on commas. Empty
// means forwarding headers are ignored and the peer address identifies the client.
func (c *Config) TrustedProxyList() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
