package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MigrationsPath     string
	MaxUploadSizeBytes int64

	// NBP exchange rate service settings.
	NBPBaseURL       string
	NBPTimeout       time.Duration
	RateLookbackDays int // how many calendar days to walk back when a rate is missing

	// Polish flat tax rate for capital gains and dividends (art. 30a/30b).
	StatutoryTaxRate decimal.Decimal

	LocalCurrency string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found. Relying on OS environment variables and defaults.")
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	nbpTimeoutStr := getEnv("NBP_TIMEOUT", "15s")
	nbpTimeout, err := time.ParseDuration(nbpTimeoutStr)
	if err != nil {
		log.Printf("WARNING: Invalid NBP_TIMEOUT format '%s'. Using default 15s. Error: %v", nbpTimeoutStr, err)
		nbpTimeout = 15 * time.Second
	}

	lookbackStr := getEnv("RATE_LOOKBACK_DAYS", "10")
	lookback, err := strconv.Atoi(lookbackStr)
	if err != nil || lookback < 1 {
		log.Printf("WARNING: Invalid RATE_LOOKBACK_DAYS value '%s'. Using default 10.", lookbackStr)
		lookback = 10
	}

	taxRateStr := getEnv("STATUTORY_TAX_RATE", "0.19")
	taxRate, err := decimal.NewFromString(taxRateStr)
	if err != nil || taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		log.Printf("WARNING: Invalid STATUTORY_TAX_RATE value '%s'. Using default 0.19.", taxRateStr)
		taxRate = decimal.RequireFromString("0.19")
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./pitfolio.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "db/migrations"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		NBPBaseURL:       getEnv("NBP_API_BASE_URL", "https://api.nbp.pl/api/exchangerates/rates/a"),
		NBPTimeout:       nbpTimeout,
		RateLookbackDays: lookback,

		StatutoryTaxRate: taxRate,
		LocalCurrency:    getEnv("LOCAL_CURRENCY", "PLN"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, NBPBaseURL=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.NBPBaseURL)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}
