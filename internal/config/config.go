package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/logger"
)

// Interface defines the interface for configuration management.
type Interface interface {
	// GetAppConfig returns the application configuration.
	GetAppConfig() *AppConfig
	// GetLoggerConfig returns the logger configuration.
	GetLoggerConfig() *logger.Config
	// GetServerConfig returns the server configuration.
	GetServerConfig() *ServerConfig
	// GetSchedulerConfig returns the scheduler configuration.
	GetSchedulerConfig() *SchedulerConfig
	// GetImageConfig returns the image localization configuration.
	GetImageConfig() *ImageConfig
	// GetStorageConfig returns the storage configuration.
	GetStorageConfig() *StorageConfig
	// GetFetcherConfig returns the fetch client configuration.
	GetFetcherConfig() *FetcherConfig
	// GetSourcesConfig returns the sources registry location.
	GetSourcesConfig() *SourcesConfig
	// Validate validates the configuration.
	Validate() error
}

// Ensure Config implements Interface
var _ Interface = (*Config)(nil)

// Load unmarshals the configuration Viper currently holds. InitializeViper
// must have been called first so defaults, the config file, and environment
// overrides are all in place.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setStructDefaults(&cfg)

	return &cfg, nil
}

// setStructDefaults initializes nil sub-configs so callers never receive a
// nil section pointer.
func setStructDefaults(cfg *Config) {
	if cfg.App == nil {
		cfg.App = &AppConfig{Name: "goread", Environment: "production"}
	}
	if cfg.Logger == nil {
		cfg.Logger = &logger.Config{
			Level:       logger.DefaultLevel,
			Encoding:    logger.DefaultEncoding,
			OutputPaths: logger.DefaultOutputPaths,
		}
	}
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{
			Address:         constants.DefaultServerAddress,
			ReadTimeout:     constants.DefaultServerReadTimeout,
			WriteTimeout:    constants.DefaultServerWriteTimeout,
			IdleTimeout:     constants.DefaultServerIdleTimeout,
			ShutdownTimeout: constants.DefaultShutdownTimeout,
		}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = &SchedulerConfig{
			FetchHour:              constants.DefaultFetchHour,
			FetchMinute:            constants.DefaultFetchMinute,
			ProcessIntervalMinutes: constants.DefaultProcessIntervalMinutes,
			MaxFetchCount:          constants.DefaultMaxFetchCount,
			MaxConcurrent:          constants.DefaultMaxConcurrentExtractions,
		}
	}
	if cfg.Images == nil {
		cfg.Images = &ImageConfig{
			DownloadDir:   constants.DefaultImageDir,
			Quality:       constants.DefaultImageQuality,
			MaxFileSize:   constants.DefaultMaxImageFileSize,
			Timeout:       constants.DefaultImageTimeout,
			MaxConcurrent: constants.DefaultMaxImageDownloads,
		}
	}
	if cfg.Storage == nil {
		cfg.Storage = &StorageConfig{ArticleDir: constants.DefaultArticleDir}
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = &FetcherConfig{
			Timeout:     constants.DefaultFetchTimeout,
			MaxBodySize: constants.DefaultMaxBodySize,
			UserAgent:   constants.DefaultUserAgent,
		}
	}
	if cfg.Sources == nil {
		cfg.Sources = &SourcesConfig{File: "sources.yml"}
	}
}

// GetAppConfig returns the application configuration.
func (c *Config) GetAppConfig() *AppConfig { return c.App }

// GetLoggerConfig returns the logger configuration.
func (c *Config) GetLoggerConfig() *logger.Config { return c.Logger }

// GetServerConfig returns the server configuration.
func (c *Config) GetServerConfig() *ServerConfig { return c.Server }

// GetSchedulerConfig returns the scheduler configuration.
func (c *Config) GetSchedulerConfig() *SchedulerConfig { return c.Scheduler }

// GetImageConfig returns the image localization configuration.
func (c *Config) GetImageConfig() *ImageConfig { return c.Images }

// GetStorageConfig returns the storage configuration.
func (c *Config) GetStorageConfig() *StorageConfig { return c.Storage }

// GetFetcherConfig returns the fetch client configuration.
func (c *Config) GetFetcherConfig() *FetcherConfig { return c.Fetcher }

// GetSourcesConfig returns the sources registry location.
func (c *Config) GetSourcesConfig() *SourcesConfig { return c.Sources }

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validateLogger(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.validateScheduler(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.validateImages(); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if c.Storage.ArticleDir == "" {
		return fmt.Errorf("storage.article_dir: %w", ErrMissingDirectory)
	}
	if c.Sources.File == "" {
		return ErrMissingSourcesFile
	}
	return nil
}

func (c *Config) validateLogger() error {
	switch c.Logger.Level {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel, logger.FatalLevel:
	default:
		return fmt.Errorf("%w: %q", logger.ErrInvalidLevel, c.Logger.Level)
	}
	switch c.Logger.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", logger.ErrInvalidEncoding, c.Logger.Encoding)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Address == "" {
		return ErrMissingAddress
	}
	return nil
}

func (c *Config) validateScheduler() error {
	s := c.Scheduler
	if s.FetchHour < 0 || s.FetchHour > 23 || s.FetchMinute < 0 || s.FetchMinute > 59 {
		return ErrInvalidFetchTime
	}
	if s.ProcessIntervalMinutes < 1 {
		return ErrInvalidInterval
	}
	if s.MaxFetchCount < 1 {
		return ErrInvalidFetchCount
	}
	if s.MaxConcurrent < 1 {
		return ErrInvalidConcurrency
	}
	return nil
}

func (c *Config) validateImages() error {
	i := c.Images
	if i.DownloadDir == "" {
		return fmt.Errorf("images.download_dir: %w", ErrMissingDirectory)
	}
	if i.Quality < 1 || i.Quality > 100 {
		return ErrInvalidQuality
	}
	if i.MaxFileSize < 1 {
		return ErrInvalidFileSize
	}
	if i.MaxConcurrent < 1 {
		return ErrInvalidConcurrency
	}
	return nil
}
