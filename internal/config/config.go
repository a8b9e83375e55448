package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BTCExplorerURL        string
	BCHExplorerURL        string
	ExplorerRetryMax      int
	ExplorerRetryDelay    time.Duration
	ExplorerRateInterval  time.Duration
	CoinGeckoURL          string
	CoinGeckoRetryMax     int
	PriceCacheTTL         time.Duration
	RefreshInterval       time.Duration
	SnapshotInterval      time.Duration
	DatabaseURL           string
	HTTPPort              string
	AdminAPIKey           string
	AccountsFile          string
	MissingBalancePolicy  string
	LogLevel              string
	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		BTCExplorerURL:        envOrDefault("BTC_EXPLORER_URL", "https://blockchain.info"),
		BCHExplorerURL:        envOrDefaultWarn("BCH_EXPLORER_URL", ""),
		ExplorerRetryMax:      envOrDefaultInt("EXPLORER_RETRY_MAX", 5),
		ExplorerRetryDelay:    envOrDefaultDuration("EXPLORER_RETRY_DELAY", 2*time.Second),
		ExplorerRateInterval:  envOrDefaultDuration("EXPLORER_RATE_INTERVAL", 500*time.Millisecond),
		CoinGeckoURL:          envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoRetryMax:     envOrDefaultInt("COINGECKO_RETRY_MAX", 5),
		PriceCacheTTL:         envOrDefaultPositiveDuration("PRICE_CACHE_TTL", 5*time.Minute),
		RefreshInterval:       envOrDefaultPositiveDuration("REFRESH_INTERVAL", 10*time.Minute),
		SnapshotInterval:      envOrDefaultPositiveDuration("SNAPSHOT_INTERVAL", 24*time.Hour),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		AccountsFile:          envOrDefault("ACCOUNTS_FILE", "accounts.yaml"),
		MissingBalancePolicy:  envOrDefault("MISSING_BALANCE_POLICY", "zero-fill"),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultPositiveDuration is envOrDefaultDuration for values that drive
// tickers and cache expiry, where zero or negative is unusable.
func envOrDefaultPositiveDuration(key string, defaultVal time.Duration) time.Duration {
	d := envOrDefaultDuration(key, defaultVal)
	if d <= 0 {
		slog.Warn("non-positive duration env var, using default", "key", key, "value", d, "default", defaultVal)
		return defaultVal
	}
	return d
}
