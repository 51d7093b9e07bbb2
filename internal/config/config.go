package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Store        StoreConfig        `mapstructure:"store"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	Gmail        GmailConfig        `mapstructure:"gmail"`
	Monitor      MonitorConfig      `mapstructure:"monitor"`
	Confirmation ConfirmationConfig `mapstructure:"confirmation"`
	Inbound      InboundConfig      `mapstructure:"inbound"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "mysql" or "memory".
	Driver string `mapstructure:"driver"`
}

// ProviderConfig selects the capability provider backend.
type ProviderConfig struct {
	// Kind is "log" or "gmail".
	Kind string `mapstructure:"kind"`
}

// GmailConfig holds Gmail API and IMAP credentials for the mail-backed
// capability provider and the IMAP inbound source.
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
	IMAPHost     string `mapstructure:"imap_host"`
	IMAPPort     int    `mapstructure:"imap_port"`
	IMAPUser     string `mapstructure:"imap_user"`
	IMAPPassword string `mapstructure:"imap_password"`
}

// MonitorConfig holds monitor loop configuration
type MonitorConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// SettingsCheckMultiple is how many ticks pass between forwarding
	// settings sanity checks.
	SettingsCheckMultiple int `mapstructure:"settings_check_multiple"`
}

// ConfirmationConfig holds confirmation gate configuration
type ConfirmationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// InboundConfig holds inbound message source configuration
type InboundConfig struct {
	IMAPEnabled         bool `mapstructure:"imap_enabled"`
	IMAPIntervalSeconds int  `mapstructure:"imap_interval_seconds"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("store.driver", "mysql")
	viper.SetDefault("provider.kind", "log")

	viper.SetDefault("gmail.imap_host", "imap.gmail.com")
	viper.SetDefault("gmail.imap_port", 993)

	viper.SetDefault("monitor.interval_seconds", 60)
	viper.SetDefault("monitor.settings_check_multiple", 5)

	viper.SetDefault("confirmation.timeout", "3m")

	viper.SetDefault("inbound.imap_enabled", false)
	viper.SetDefault("inbound.imap_interval_seconds", 60)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	viper.BindEnv("store.driver", "STORE_DRIVER")
	viper.BindEnv("provider.kind", "PROVIDER_KIND")

	viper.BindEnv("gmail.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("gmail.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("gmail.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("gmail.user_email", "GMAIL_USER_EMAIL")
	viper.BindEnv("gmail.imap_host", "GMAIL_IMAP_HOST")
	viper.BindEnv("gmail.imap_port", "GMAIL_IMAP_PORT")
	viper.BindEnv("gmail.imap_user", "GMAIL_IMAP_USER")
	viper.BindEnv("gmail.imap_password", "GMAIL_IMAP_PASSWORD")

	viper.BindEnv("monitor.interval_seconds", "MONITOR_INTERVAL_SECONDS")
	viper.BindEnv("monitor.settings_check_multiple", "MONITOR_SETTINGS_CHECK_MULTIPLE")

	viper.BindEnv("confirmation.timeout", "CONFIRMATION_TIMEOUT")

	viper.BindEnv("inbound.imap_enabled", "INBOUND_IMAP_ENABLED")
	viper.BindEnv("inbound.imap_interval_seconds", "INBOUND_IMAP_INTERVAL_SECONDS")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Store.Driver {
	case "mysql":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required for the mysql store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Provider.Kind {
	case "log":
	case "gmail":
		if c.Gmail.ClientID == "" || c.Gmail.ClientSecret == "" || c.Gmail.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required for the gmail provider")
		}
	default:
		return fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}

	if c.Inbound.IMAPEnabled {
		if c.Gmail.IMAPUser == "" || c.Gmail.IMAPPassword == "" {
			return fmt.Errorf("IMAP credentials are required when the IMAP inbound source is enabled")
		}
	}

	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor interval must be greater than 0")
	}
	if c.Monitor.SettingsCheckMultiple <= 0 {
		return fmt.Errorf("settings check multiple must be greater than 0")
	}
	if c.Confirmation.Timeout <= 0 {
		return fmt.Errorf("confirmation timeout must be greater than 0")
	}

	return nil
}
