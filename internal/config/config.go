package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotToken    string
	BotUsername string
	APIPort     string
	MainAdminID int64
	KaspiLink   string
	MiniAppURL  string

	// Campaign calendar, all dates in the reference timezone.
	Timezone         string
	RamadanStart     string
	PreparationStart string
	EidDate          string

	FullPrice     int
	DiscountPrice int

	Database DatabaseConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	mainAdminID, err := getEnvInt64("MAIN_ADMIN_ID", 0)
	if err != nil {
		return nil, err
	}
	fullPrice, err := getEnvInt("FULL_PRICE", 2490)
	if err != nil {
		return nil, err
	}
	discountPrice, err := getEnvInt("DISCOUNT_PRICE", 1990)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:         os.Getenv("BOT_TOKEN"),
		BotUsername:      getEnv("BOT_USERNAME", "imantap_bot"),
		APIPort:          getEnv("API_PORT", "8080"),
		MainAdminID:      mainAdminID,
		KaspiLink:        getEnv("KASPI_LINK", "https://pay.kaspi.kz/pay/ygtke7vw"),
		MiniAppURL:       getEnv("MINI_APP_URL", "https://app.imantap.kz"),
		Timezone:         getEnv("TIMEZONE", "Asia/Almaty"),
		RamadanStart:     getEnv("RAMADAN_START", "2026-02-19"),
		PreparationStart: getEnv("PREPARATION_START", "2026-02-09"),
		EidDate:          getEnv("EID_DATE", "2026-03-20"),
		FullPrice:        fullPrice,
		DiscountPrice:    discountPrice,
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "imantap"),
			User:     getEnv("DB_USER", "imantap"),
			Password: os.Getenv("DB_PASSWORD"),
		},
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.MainAdminID == 0 {
		return nil, fmt.Errorf("MAIN_ADMIN_ID is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	for _, date := range []struct{ key, value string }{
		{"RAMADAN_START", cfg.RamadanStart},
		{"PREPARATION_START", cfg.PreparationStart},
		{"EID_DATE", cfg.EidDate},
	} {
		if _, err := time.Parse("2006-01-02", date.value); err != nil {
			return nil, fmt.Errorf("%s must be YYYY-MM-DD: %w", date.key, err)
		}
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// Location returns the reference timezone used for every "today"
// computation.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// Validated in Load.
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
