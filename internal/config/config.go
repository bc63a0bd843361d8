package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Solana RPC settings
	RPCUrl string

	// Jupiter API settings
	JupiterBaseURL  string
	JupiterTokenURL string
	JupiterPriceURL string
	JupiterAPIKey   string

	// Redis settings
	RedisAddr string

	// ClickHouse settings (optional; swap history persistence)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Insights / LLM settings (optional)
	OpenRouterAPIKey string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Quote / swap-build timeouts. Building involves route serialization
	// upstream and is allowed to take longer than quoting.
	QuoteTimeout     time.Duration
	SwapBuildTimeout time.Duration
	ConfirmTimeout   time.Duration

	// Swap defaults
	SlippagePct float64

	// API server
	APIAddr string
	APIKey  string
	DevMode bool
}

func Load() *Config {
	return &Config{
		RPCUrl: getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),

		JupiterBaseURL:  getEnv("JUPITER_BASE_URL", "https://quote-api.jup.ag/v6"),
		JupiterTokenURL: getEnv("JUPITER_TOKEN_URL", "https://token.jup.ag/all"),
		JupiterPriceURL: getEnv("JUPITER_PRICE_URL", "https://price.jup.ag/v4/price"),
		JupiterAPIKey:   getEnv("JUPITER_API_KEY", ""),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "gateway"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),

		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 1*time.Second),

		QuoteTimeout:     getDurationEnv("QUOTE_TIMEOUT", 10*time.Second),
		SwapBuildTimeout: getDurationEnv("SWAP_BUILD_TIMEOUT", 15*time.Second),
		ConfirmTimeout:   getDurationEnv("CONFIRM_TIMEOUT", 60*time.Second),

		SlippagePct: getFloatEnv("DEFAULT_SLIPPAGE_PCT", 0.5),

		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCUrl) == "" {
		return fmt.Errorf("SOLANA_RPC_URL must not be empty")
	}
	if strings.TrimSpace(c.JupiterBaseURL) == "" {
		return fmt.Errorf("JUPITER_BASE_URL must not be empty")
	}
	if c.SlippagePct < 0 {
		return fmt.Errorf("DEFAULT_SLIPPAGE_PCT must be >= 0, got %v", c.SlippagePct)
	}
	if c.QuoteTimeout <= 0 || c.SwapBuildTimeout <= 0 {
		return fmt.Errorf("quote and swap-build timeouts must be > 0")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
