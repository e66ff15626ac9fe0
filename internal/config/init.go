package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonesrussell/goread/internal/constants"
)

// InitializeViper initializes Viper configuration from environment variables
// and config files. This must be called before Load().
func InitializeViper() error {
	loadEnvFile()
	setupViper()
	setDefaults()
	readConfigFile()

	if err := bindEnvironmentVariables(); err != nil {
		return fmt.Errorf("failed to bind environment variables: %w", err)
	}

	setupDevelopmentLogging()
	return nil
}

// loadEnvFile loads .env file (ignores error if file doesn't exist).
func loadEnvFile() {
	_ = godotenv.Load()
}

// setupViper configures Viper for environment variable and config file reading.
func setupViper() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
}

// readConfigFile reads config file (ignores error if file doesn't exist).
func readConfigFile() {
	_ = viper.ReadInConfig()
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults - production safe
	viper.SetDefault("app", map[string]any{
		"name":        "goread",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	// Logger defaults - production safe
	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "json",
		"output_paths": []string{"stdout"},
		"enable_color": false,
	})

	// Server defaults
	viper.SetDefault("server", map[string]any{
		"address":          constants.DefaultServerAddress,
		"read_timeout":     constants.DefaultServerReadTimeout.String(),
		"write_timeout":    constants.DefaultServerWriteTimeout.String(),
		"idle_timeout":     constants.DefaultServerIdleTimeout.String(),
		"shutdown_timeout": constants.DefaultShutdownTimeout.String(),
	})

	// Scheduler defaults
	viper.SetDefault("scheduler", map[string]any{
		"fetch_hour":               constants.DefaultFetchHour,
		"fetch_minute":             constants.DefaultFetchMinute,
		"process_interval_minutes": constants.DefaultProcessIntervalMinutes,
		"max_fetch_count":          constants.DefaultMaxFetchCount,
		"max_concurrent":           constants.DefaultMaxConcurrentExtractions,
	})

	// Image defaults
	viper.SetDefault("images", map[string]any{
		"download_dir":   constants.DefaultImageDir,
		"resize_enabled": false,
		"max_width":      1200,
		"max_height":     1200,
		"quality":        constants.DefaultImageQuality,
		"max_file_size":  constants.DefaultMaxImageFileSize,
		"timeout":        constants.DefaultImageTimeout.String(),
		"max_concurrent": constants.DefaultMaxImageDownloads,
	})

	// Storage defaults
	viper.SetDefault("storage", map[string]any{
		"article_dir": constants.DefaultArticleDir,
	})

	// Fetcher defaults
	viper.SetDefault("fetcher", map[string]any{
		"timeout":       constants.DefaultFetchTimeout.String(),
		"max_body_size": constants.DefaultMaxBodySize,
		"user_agent":    constants.DefaultUserAgent,
	})

	// Sources defaults
	viper.SetDefault("sources", map[string]any{
		"file": "sources.yml",
	})
}

// bindEnvironmentVariables binds all environment variables to config keys.
func bindEnvironmentVariables() error {
	if err := viper.BindEnv("app.environment", "APP_ENV"); err != nil {
		return fmt.Errorf("failed to bind APP_ENV: %w", err)
	}
	if err := viper.BindEnv("app.debug", "APP_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind APP_DEBUG: %w", err)
	}
	if err := viper.BindEnv("logger.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if err := viper.BindEnv("logger.encoding", "LOG_FORMAT"); err != nil {
		return fmt.Errorf("failed to bind LOG_FORMAT: %w", err)
	}
	if err := viper.BindEnv("server.address", "GOREAD_SERVER_ADDRESS"); err != nil {
		return fmt.Errorf("failed to bind GOREAD_SERVER_ADDRESS: %w", err)
	}
	if err := viper.BindEnv("storage.article_dir", "GOREAD_ARTICLE_DIR"); err != nil {
		return fmt.Errorf("failed to bind GOREAD_ARTICLE_DIR: %w", err)
	}
	if err := viper.BindEnv("images.download_dir", "GOREAD_IMAGE_DIR"); err != nil {
		return fmt.Errorf("failed to bind GOREAD_IMAGE_DIR: %w", err)
	}
	if err := viper.BindEnv("sources.file", "GOREAD_SOURCES_FILE"); err != nil {
		return fmt.Errorf("failed to bind GOREAD_SOURCES_FILE: %w", err)
	}
	return nil
}

// setupDevelopmentLogging configures logging settings based on environment
// variables. Debug level (APP_DEBUG) is separate from development formatting
// (APP_ENV) so debug logs can be enabled in production for troubleshooting.
func setupDevelopmentLogging() {
	if viper.GetBool("app.debug") {
		viper.Set("logger.level", "debug")
	}

	if viper.GetString("app.environment") == "development" {
		viper.Set("logger.development", true)
		viper.Set("logger.enable_color", true)
		viper.Set("logger.encoding", "console")
	}
}
