package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets viper defaults for every configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Web server
	viper.SetDefault("webserver.address", "0.0.0.0")
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	// Database
	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "signbridge.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "signbridge")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "signbridge")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	// AI gateway
	viper.SetDefault("gateway.apikey", "")
	viper.SetDefault("gateway.model", "gemini-1.5-flash")
	viper.SetDefault("gateway.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gateway.timeout", 30*time.Second)

	// Media storage
	viper.SetDefault("media.basepath", "media")

	// Security
	viper.SetDefault("security.sessionsecret", "")
	viper.SetDefault("security.sessionname", "signbridge-session")
}
