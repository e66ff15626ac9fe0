// Package constants provides shared constants used across the application.
package constants

import "time"

// HTTP/Server constants
const (
	// DefaultServerAddress is the default HTTP server address
	DefaultServerAddress = ":8080"

	// DefaultServerReadTimeout is the default HTTP server read timeout
	DefaultServerReadTimeout = 15 * time.Second

	// DefaultServerWriteTimeout is the default HTTP server write timeout
	DefaultServerWriteTimeout = 30 * time.Second

	// DefaultServerIdleTimeout is the default HTTP server idle timeout
	DefaultServerIdleTimeout = 60 * time.Second

	// DefaultReadHeaderTimeout is the timeout for reading request headers
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout is the timeout for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

// Fetch constants
const (
	// DefaultFetchTimeout is the default timeout for page fetches
	DefaultFetchTimeout = 30 * time.Second

	// DefaultImageTimeout is the default timeout for image downloads
	DefaultImageTimeout = 25 * time.Second

	// DefaultMaxBodySize is the default maximum response body size (10 MB)
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent identifies fetch requests when a section supplies
	// no User-Agent header of its own
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// HTTP transport settings shared by the fetch client
const (
	// DefaultMaxIdleConns is the connection pool size across all hosts
	DefaultMaxIdleConns = 100

	// DefaultMaxIdleConnsPerHost is the connection pool size per host
	DefaultMaxIdleConnsPerHost = 10

	// DefaultIdleConnTimeout is how long an idle connection is kept
	DefaultIdleConnTimeout = 90 * time.Second

	// DefaultTLSHandshakeTimeout bounds the TLS handshake
	DefaultTLSHandshakeTimeout = 10 * time.Second

	// DefaultResponseHeaderTimeout bounds the wait for response headers
	DefaultResponseHeaderTimeout = 30 * time.Second

	// DefaultExpectContinueTimeout bounds the wait for a 100 Continue
	DefaultExpectContinueTimeout = 1 * time.Second
)

// Scheduler constants
const (
	// DefaultFetchHour is the hour of the daily listing refresh
	DefaultFetchHour = 2

	// DefaultFetchMinute is the minute of the daily listing refresh
	DefaultFetchMinute = 0

	// DefaultProcessIntervalMinutes is the spacing of process runs
	DefaultProcessIntervalMinutes = 5

	// DefaultMaxFetchCount bounds the stubs sampled per section per refresh
	DefaultMaxFetchCount = 10

	// DefaultMaxConcurrentExtractions bounds simultaneous extractions
	DefaultMaxConcurrentExtractions = 5
)

// Image constants
const (
	// DefaultMaxImageDownloads bounds simultaneous image downloads
	// across all running extractions
	DefaultMaxImageDownloads = 10

	// DefaultImageQuality is the initial JPEG encode quality
	DefaultImageQuality = 85

	// MinImageQuality is the quality-stepping floor
	MinImageQuality = 40

	// ImageQualityStep is the decrement applied per stepping round
	ImageQualityStep = 10

	// DefaultMaxImageFileSize is the image byte budget (500 KB)
	DefaultMaxImageFileSize = 500 * 1024
)

// Storage constants
const (
	// DefaultArticleDir is where rendered article documents are written
	DefaultArticleDir = "data/articles"

	// DefaultImageDir is where localized images are written
	DefaultImageDir = "data/images"

	// MaxArticleFilenameLength bounds the sanitized filename stem
	MaxArticleFilenameLength = 100
)

// Channel buffer sizes
const (
	// ErrorChannelBufferSize is the buffer size for error channels
	ErrorChannelBufferSize = 1

	// SignalChannelBufferSize is the buffer size for OS signal channels
	SignalChannelBufferSize = 1
)
