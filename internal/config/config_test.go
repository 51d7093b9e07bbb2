package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host: "localhost", Port: 3306,
			User: "root", Password: "secret", DBName: "shortcoder",
		},
		Store:        StoreConfig{Driver: "mysql"},
		Provider:     ProviderConfig{Kind: "log"},
		Monitor:      MonitorConfig{IntervalSeconds: 60, SettingsCheckMultiple: 5},
		Confirmation: ConfirmationConfig{Timeout: 3 * time.Minute},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	t.Run("missing server port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("mysql store requires database settings", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.User = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("memory store needs no database", func(t *testing.T) {
		cfg := validConfig()
		cfg.Store.Driver = "memory"
		cfg.Database = DatabaseConfig{}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown store driver", func(t *testing.T) {
		cfg := validConfig()
		cfg.Store.Driver = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("gmail provider requires credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider.Kind = "gmail"
		assert.Error(t, cfg.Validate())

		cfg.Gmail = GmailConfig{
			ClientID: "id", ClientSecret: "secret", RefreshToken: "token",
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider kind", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider.Kind = "carrier-pigeon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("imap inbound requires credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Inbound.IMAPEnabled = true
		assert.Error(t, cfg.Validate())

		cfg.Gmail.IMAPUser = "user@example.com"
		cfg.Gmail.IMAPPassword = "app-password"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("monitor interval must be positive", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.IntervalSeconds = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("settings check multiple must be positive", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.SettingsCheckMultiple = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("confirmation timeout must be positive", func(t *testing.T) {
		cfg := validConfig()
		cfg.Confirmation.Timeout = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host: "db.example.com", Port: 3307,
		User: "app", Password: "pw", DBName: "shortcoder",
	}
	assert.Equal(t,
		"app:pw@tcp(db.example.com:3307)/shortcoder?charset=utf8mb4&parseTime=True&loc=Local",
		db.GetDSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "log", cfg.Provider.Kind)
	assert.Equal(t, 60, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 5, cfg.Monitor.SettingsCheckMultiple)
	assert.Equal(t, 3*time.Minute, cfg.Confirmation.Timeout)
	assert.False(t, cfg.Inbound.IMAPEnabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "15")
	t.Setenv("CONFIRMATION_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 15, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 45*time.Second, cfg.Confirmation.Timeout)
}
