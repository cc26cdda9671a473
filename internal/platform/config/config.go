package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// SettingsCacheTTL bounds staleness of cached runtime settings.
	SettingsCacheTTL time.Duration

	// TaskTimeout bounds each background task's context.
	TaskTimeout time.Duration

	// CallbackRateLimit throttles the public gateway-callback route,
	// formatted per ulule/limiter (e.g. "120-M").
	CallbackRateLimit string

	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("SETTINGS_CACHE_TTL", "30s")
	viper.SetDefault("TASK_TIMEOUT", "30s")
	viper.SetDefault("CALLBACK_RATE_LIMIT", "120-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cacheTTLStr := viper.GetString("SETTINGS_CACHE_TTL")
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		cacheTTL = 30 * time.Second
		log.Printf("Warning: Invalid value for SETTINGS_CACHE_TTL ('%s'). Defaulting to %s.\n", cacheTTLStr, cacheTTL)
	}
	cfg.SettingsCacheTTL = cacheTTL

	taskTimeoutStr := viper.GetString("TASK_TIMEOUT")
	taskTimeout, err := time.ParseDuration(taskTimeoutStr)
	if err != nil {
		taskTimeout = 30 * time.Second
		log.Printf("Warning: Invalid value for TASK_TIMEOUT ('%s'). Defaulting to %s.\n", taskTimeoutStr, taskTimeout)
	}
	cfg.TaskTimeout = taskTimeout

	cfg.CallbackRateLimit = viper.GetString("CALLBACK_RATE_LIMIT")
	cfg.CORSAllowedOrigins = viper.GetStringSlice("CORS_ALLOWED_ORIGINS")

	return cfg, nil
}
