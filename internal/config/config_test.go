package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test_token")
	t.Setenv("MAIN_ADMIN_ID", "999")
	t.Setenv("DB_PASSWORD", "test_db_password")
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T)
		missing string
	}{
		{
			name: "missing bot token",
			prepare: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("BOT_TOKEN", "")
			},
			missing: "BOT_TOKEN",
		},
		{
			name: "missing main admin id",
			prepare: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("MAIN_ADMIN_ID", "")
			},
			missing: "MAIN_ADMIN_ID",
		},
		{
			name: "missing db password",
			prepare: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("DB_PASSWORD", "")
			},
			missing: "DB_PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepare(t)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_USER", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("RAMADAN_START", "")
	t.Setenv("EID_DATE", "")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "test_token", cfg.BotToken)
	assert.Equal(t, int64(999), cfg.MainAdminID)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "imantap", cfg.Database.Name)
	assert.Equal(t, "imantap", cfg.Database.User)
	assert.Equal(t, "Asia/Almaty", cfg.Timezone)
	assert.Equal(t, "2026-02-19", cfg.RamadanStart)
	assert.Equal(t, "2026-02-09", cfg.PreparationStart)
	assert.Equal(t, "2026-03-20", cfg.EidDate)
	assert.Equal(t, 2490, cfg.FullPrice)
	assert.Equal(t, 1990, cfg.DiscountPrice)
}

func TestLoad_InvalidDate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RAMADAN_START", "19.02.2026")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "RAMADAN_START")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TIMEZONE")
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Almaty"}
	loc := cfg.Location()
	assert.Equal(t, "Asia/Almaty", loc.String())
}
