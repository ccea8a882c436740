// Package conf loads and exposes the application configuration.
package conf

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// WebServerSettings contains the HTTP listener configuration
type WebServerSettings struct {
	Address string `yaml:"address"` // listen address, e.g. 0.0.0.0
	Port    string `yaml:"port"`    // listen port
	Debug   bool   `yaml:"debug"`   // enable request logging
}

// SQLiteSettings contains SQLite output settings
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // path to the database file
}

// MySQLSettings contains MySQL output settings
type MySQLSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// DatabaseSettings selects and configures the backing store
type DatabaseSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// GatewaySettings configures the remote vision model used for sign
// interpretation. When APIKey is empty the gateway runs in demo mode and
// serves canned fallback results only.
type GatewaySettings struct {
	APIKey   string        `yaml:"apikey"`   // remote model credential
	Model    string        `yaml:"model"`    // model identifier
	Endpoint string        `yaml:"endpoint"` // base URL of the vision API
	Timeout  time.Duration `yaml:"timeout"`  // per-request timeout, fallback on expiry
}

// MediaSettings configures local blob storage for frame and audio assets
type MediaSettings struct {
	BasePath string `yaml:"basepath"` // root directory for frames/ and audio/
}

// SecuritySettings holds identity-related configuration. Credential
// management itself is delegated to the external identity provider; the
// service only verifies the session cookie.
type SecuritySettings struct {
	SessionSecret string `yaml:"sessionsecret"` // cookie signing secret
	SessionName   string `yaml:"sessionname"`   // cookie name
}

// Settings is the root configuration object
type Settings struct {
	Debug     bool              `yaml:"debug"` // true to enable debug logging
	WebServer WebServerSettings `yaml:"webserver"`
	Database  DatabaseSettings  `yaml:"database"`
	Gateway   GatewaySettings   `yaml:"gateway"`
	Media     MediaSettings     `yaml:"media"`
	Security  SecuritySettings  `yaml:"security"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/signbridge")
	viper.AddConfigPath("/etc/signbridge")

	viper.SetEnvPrefix("signbridge")
	viper.AutomaticEnv()

	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults plus env vars apply
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// ValidateSettings checks settings combinations that cannot work at runtime.
func ValidateSettings(settings *Settings) error {
	if settings.Database.SQLite.Enabled && settings.Database.MySQL.Enabled {
		return fmt.Errorf("both SQLite and MySQL outputs enabled, pick one")
	}
	if !settings.Database.SQLite.Enabled && !settings.Database.MySQL.Enabled {
		return fmt.Errorf("no database output enabled")
	}
	if settings.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	return nil
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	settingsMutex.RLock()
	instance := settingsInstance
	settingsMutex.RUnlock()

	if instance != nil {
		return instance
	}

	settings, err := Load()
	if err != nil {
		return nil
	}
	return settings
}
