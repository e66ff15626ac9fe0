package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrConfigNotLoaded is returned when configuration is accessed before loading.
	ErrConfigNotLoaded = errors.New("configuration not loaded")
	// ErrInvalidFetchTime is returned when the refresh hour or minute is out of range.
	ErrInvalidFetchTime = errors.New("fetch hour must be 0-23 and fetch minute 0-59")
	// ErrInvalidInterval is returned when the process interval is below one minute.
	ErrInvalidInterval = errors.New("process interval must be at least one minute")
	// ErrInvalidConcurrency is returned when a concurrency bound is not positive.
	ErrInvalidConcurrency = errors.New("concurrency limits must be positive")
	// ErrInvalidFetchCount is returned when the per-section sample size is not positive.
	ErrInvalidFetchCount = errors.New("max fetch count must be positive")
	// ErrInvalidQuality is returned when the JPEG quality is out of range.
	ErrInvalidQuality = errors.New("image quality must be between 1 and 100")
	// ErrInvalidFileSize is returned when the image byte budget is not positive.
	ErrInvalidFileSize = errors.New("image max file size must be positive")
	// ErrMissingDirectory is returned when a required directory setting is empty.
	ErrMissingDirectory = errors.New("directory must not be empty")
	// ErrMissingAddress is returned when the server address is empty.
	ErrMissingAddress = errors.New("server address must not be empty")
	// ErrMissingSourcesFile is returned when the sources registry path is empty.
	ErrMissingSourcesFile = errors.New("sources file must not be empty")
)
