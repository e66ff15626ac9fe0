package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goread/internal/config"
	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/logger"
)

// validConfig returns a configuration that passes validation; individual
// tests mutate one field at a time.
func validConfig() *config.Config {
	return &config.Config{
		App: &config.AppConfig{
			Name:        "goread",
			Version:     "1.0.0",
			Environment: "development",
		},
		Logger: &logger.Config{
			Level:       logger.InfoLevel,
			Encoding:    "console",
			OutputPaths: []string{"stdout"},
		},
		Server: &config.ServerConfig{
			Address:         ":8080",
			ReadTimeout:     constants.DefaultServerReadTimeout,
			WriteTimeout:    constants.DefaultServerWriteTimeout,
			IdleTimeout:     constants.DefaultServerIdleTimeout,
			ShutdownTimeout: constants.DefaultShutdownTimeout,
		},
		Scheduler: &config.SchedulerConfig{
			FetchHour:              2,
			FetchMinute:            0,
			ProcessIntervalMinutes: 5,
			MaxFetchCount:          10,
			MaxConcurrent:          5,
		},
		Images: &config.ImageConfig{
			DownloadDir:   "data/images",
			Quality:       85,
			MaxFileSize:   500 * 1024,
			Timeout:       constants.DefaultImageTimeout,
			MaxConcurrent: 10,
		},
		Storage: &config.StorageConfig{ArticleDir: "data/articles"},
		Fetcher: &config.FetcherConfig{
			Timeout:     constants.DefaultFetchTimeout,
			MaxBodySize: constants.DefaultMaxBodySize,
			UserAgent:   "test-agent",
		},
		Sources: &config.SourcesConfig{File: "sources.yml"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:   "valid configuration",
			mutate: func(*config.Config) {},
		},
		{
			name:    "fetch hour out of range",
			mutate:  func(c *config.Config) { c.Scheduler.FetchHour = 24 },
			wantErr: config.ErrInvalidFetchTime,
		},
		{
			name:    "fetch minute out of range",
			mutate:  func(c *config.Config) { c.Scheduler.FetchMinute = 60 },
			wantErr: config.ErrInvalidFetchTime,
		},
		{
			name:    "negative fetch hour",
			mutate:  func(c *config.Config) { c.Scheduler.FetchHour = -1 },
			wantErr: config.ErrInvalidFetchTime,
		},
		{
			name:    "zero process interval",
			mutate:  func(c *config.Config) { c.Scheduler.ProcessIntervalMinutes = 0 },
			wantErr: config.ErrInvalidInterval,
		},
		{
			name:    "zero max fetch count",
			mutate:  func(c *config.Config) { c.Scheduler.MaxFetchCount = 0 },
			wantErr: config.ErrInvalidFetchCount,
		},
		{
			name:    "zero extraction concurrency",
			mutate:  func(c *config.Config) { c.Scheduler.MaxConcurrent = 0 },
			wantErr: config.ErrInvalidConcurrency,
		},
		{
			name:    "quality above 100",
			mutate:  func(c *config.Config) { c.Images.Quality = 101 },
			wantErr: config.ErrInvalidQuality,
		},
		{
			name:    "zero quality",
			mutate:  func(c *config.Config) { c.Images.Quality = 0 },
			wantErr: config.ErrInvalidQuality,
		},
		{
			name:    "zero image byte budget",
			mutate:  func(c *config.Config) { c.Images.MaxFileSize = 0 },
			wantErr: config.ErrInvalidFileSize,
		},
		{
			name:    "zero image concurrency",
			mutate:  func(c *config.Config) { c.Images.MaxConcurrent = 0 },
			wantErr: config.ErrInvalidConcurrency,
		},
		{
			name:    "empty image dir",
			mutate:  func(c *config.Config) { c.Images.DownloadDir = "" },
			wantErr: config.ErrMissingDirectory,
		},
		{
			name:    "empty article dir",
			mutate:  func(c *config.Config) { c.Storage.ArticleDir = "" },
			wantErr: config.ErrMissingDirectory,
		},
		{
			name:    "empty server address",
			mutate:  func(c *config.Config) { c.Server.Address = "" },
			wantErr: config.ErrMissingAddress,
		},
		{
			name:    "empty sources file",
			mutate:  func(c *config.Config) { c.Sources.File = "" },
			wantErr: config.ErrMissingSourcesFile,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *config.Config) { c.Logger.Level = "verbose" },
			wantErr: logger.ErrInvalidLevel,
		},
		{
			name:    "invalid log encoding",
			mutate:  func(c *config.Config) { c.Logger.Encoding = "logfmt" },
			wantErr: logger.ErrInvalidEncoding,
		},
	}

	for i := range tests {
		test := &tests[i]
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			test.mutate(cfg)

			err := cfg.Validate()
			if test.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, test.wantErr)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Not parallel: InitializeViper mutates global viper state.
	require.NoError(t, config.InitializeViper())

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.App)
	require.NotNil(t, cfg.Logger)
	require.NotNil(t, cfg.Server)
	require.NotNil(t, cfg.Scheduler)
	require.NotNil(t, cfg.Images)
	require.NotNil(t, cfg.Storage)
	require.NotNil(t, cfg.Fetcher)
	require.NotNil(t, cfg.Sources)

	require.Equal(t, 2, cfg.Scheduler.FetchHour)
	require.Equal(t, 5, cfg.Scheduler.ProcessIntervalMinutes)
	require.Equal(t, 10, cfg.Scheduler.MaxFetchCount)
	require.Equal(t, 85, cfg.Images.Quality)
	require.Equal(t, constants.DefaultImageTimeout, cfg.Images.Timeout)
	require.Equal(t, constants.DefaultMaxBodySize, int(cfg.Fetcher.MaxBodySize))
	require.NoError(t, cfg.Validate())
}
