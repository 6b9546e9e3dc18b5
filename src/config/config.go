package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	// Ledger parsing
	ExpectedColumns int  // 0 = auto-detect from the header
	ApplyLoanFixes  bool // normalize Repayment/Liquidation export quirks

	// Price feed endpoints. Overridable for tests and self-hosted mirrors.
	CoinbaseAPIBaseURL    string
	CoingeckoAPIBaseURL   string
	FrankfurterAPIBaseURL string

	PriceFeedTimeout  time.Duration
	PriceRequestDelay time.Duration // stagger between outbound rate lookups
	RateCacheExpiry   time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, relying on OS environment variables and defaults.")
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./cryptofolio.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),

		ExpectedColumns: getEnvAsInt("LEDGER_EXPECTED_COLUMNS", 0),
		ApplyLoanFixes:  getEnvAsBool("LEDGER_APPLY_LOAN_FIXES", true),

		CoinbaseAPIBaseURL:    getEnv("COINBASE_API_BASE_URL", "https://api.coinbase.com"),
		CoingeckoAPIBaseURL:   getEnv("COINGECKO_API_BASE_URL", "https://api.coingecko.com"),
		FrankfurterAPIBaseURL: getEnv("FRANKFURTER_API_BASE_URL", "https://api.frankfurter.app"),

		PriceFeedTimeout:  getEnvAsDuration("PRICE_FEED_TIMEOUT", 20*time.Second),
		PriceRequestDelay: getEnvAsDuration("PRICE_REQUEST_DELAY", 250*time.Millisecond),
		RateCacheExpiry:   getEnvAsDuration("RATE_CACHE_EXPIRY", 15*time.Minute),
	}

	if Cfg.ExpectedColumns != 0 && Cfg.ExpectedColumns != 8 && Cfg.ExpectedColumns != 10 {
		log.Fatalf("FATAL: LEDGER_EXPECTED_COLUMNS must be 0, 8 or 10, got %d", Cfg.ExpectedColumns)
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
