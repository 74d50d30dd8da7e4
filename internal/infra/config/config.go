package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL     string
	HTTPAddr        string
	JWTSecret       string
	AdminAddress    string // identity of the engine admin / keeper
	SettlementAsset string // identity of the settlement token
	CustodyAccount  string // the engine's own escrow account
	TelegramToken   string // optional; empty disables the Telegram notifier
	AdminChatID     int64  // Telegram chat the notifier posts to
	CronSpecKeeper  string // schedule of the keeper sweep
	LogLevel        string
	Environment     string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg.AdminAddress = os.Getenv("ADMIN_ADDRESS")
	if cfg.AdminAddress == "" {
		return nil, fmt.Errorf("ADMIN_ADDRESS is not set")
	}

	cfg.SettlementAsset = os.Getenv("SETTLEMENT_ASSET")
	if cfg.SettlementAsset == "" {
		return nil, fmt.Errorf("SETTLEMENT_ASSET is not set")
	}

	cfg.CustodyAccount = os.Getenv("CUSTODY_ACCOUNT")
	if cfg.CustodyAccount == "" {
		return nil, fmt.Errorf("CUSTODY_ACCOUNT is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	// Telegram notifications are optional; leave TELEGRAM_TOKEN unset to run
	// with log-only event publishing.
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		chatIDStr := os.Getenv("ADMIN_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("ADMIN_CHAT_ID is not set (required when TELEGRAM_TOKEN is set)")
		}
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
		}
		cfg.AdminChatID = chatID
	}

	cfg.CronSpecKeeper = os.Getenv("CRON_SPEC_KEEPER")
	if cfg.CronSpecKeeper == "" {
		cfg.CronSpecKeeper = "0 6 * * *" // Default: 06:00 daily
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
