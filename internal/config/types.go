// Package config provides configuration management for the application.
// It handles loading, validation, and access to configuration values from
// YAML files and environment variables using Viper.
package config

import (
	"time"

	"github.com/jonesrussell/goread/internal/logger"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	// Name is the application name used in logs
	Name string `yaml:"name" mapstructure:"name"`
	// Version is the application version
	Version string `yaml:"version" mapstructure:"version"`
	// Environment is the deployment environment (development, production)
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Debug enables debug logging regardless of environment
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080")
	Address string `yaml:"address" mapstructure:"address"`
	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration before timing out response writes
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// SchedulerConfig holds the timing and concurrency settings of the
// ingestion pipeline.
type SchedulerConfig struct {
	// FetchHour is the hour (0-23) of the daily listing refresh
	FetchHour int `yaml:"fetch_hour" mapstructure:"fetch_hour"`
	// FetchMinute is the minute (0-59) of the daily listing refresh
	FetchMinute int `yaml:"fetch_minute" mapstructure:"fetch_minute"`
	// ProcessIntervalMinutes is the spacing between process runs
	ProcessIntervalMinutes int `yaml:"process_interval_minutes" mapstructure:"process_interval_minutes"`
	// MaxFetchCount bounds how many stubs are sampled per section per refresh
	MaxFetchCount int `yaml:"max_fetch_count" mapstructure:"max_fetch_count"`
	// MaxConcurrent bounds simultaneous article extractions
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ImageConfig holds image download and recompression settings.
type ImageConfig struct {
	// DownloadDir is where localized images are stored
	DownloadDir string `yaml:"download_dir" mapstructure:"download_dir"`
	// ResizeEnabled scales images down to MaxWidth x MaxHeight when set.
	// Off by default: original dimensions are preserved and only
	// recompression applies.
	ResizeEnabled bool `yaml:"resize_enabled" mapstructure:"resize_enabled"`
	// MaxWidth bounds image width when resizing is enabled
	MaxWidth int `yaml:"max_width" mapstructure:"max_width"`
	// MaxHeight bounds image height when resizing is enabled
	MaxHeight int `yaml:"max_height" mapstructure:"max_height"`
	// Quality is the initial JPEG encode quality (1-100)
	Quality int `yaml:"quality" mapstructure:"quality"`
	// MaxFileSize is the byte budget for an encoded image
	MaxFileSize int `yaml:"max_file_size" mapstructure:"max_file_size"`
	// Timeout bounds a single image download
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxConcurrent bounds simultaneous image downloads across all
	// running extractions
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// StorageConfig holds article persistence settings.
type StorageConfig struct {
	// ArticleDir is where rendered article documents are stored
	ArticleDir string `yaml:"article_dir" mapstructure:"article_dir"`
}

// FetcherConfig holds HTTP fetch client settings.
type FetcherConfig struct {
	// Timeout bounds a single page fetch
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxBodySize caps response bodies in bytes
	MaxBodySize int64 `yaml:"max_body_size" mapstructure:"max_body_size"`
	// UserAgent is sent when a section supplies no User-Agent of its own
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig points at the site/section registry file.
type SourcesConfig struct {
	// File is the path to the sources registry (sources.yml)
	File string `yaml:"file" mapstructure:"file"`
}

// Config represents the application configuration.
type Config struct {
	App       *AppConfig       `yaml:"app" mapstructure:"app"`
	Logger    *logger.Config   `yaml:"logger" mapstructure:"logger"`
	Server    *ServerConfig    `yaml:"server" mapstructure:"server"`
	Scheduler *SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Images    *ImageConfig     `yaml:"images" mapstructure:"images"`
	Storage   *StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Fetcher   *FetcherConfig   `yaml:"fetcher" mapstructure:"fetcher"`
	Sources   *SourcesConfig   `yaml:"sources" mapstructure:"sources"`
}
