package types

import (
	"time"
)

// Size constants
const (
	KB = 1024
	MB = 1024 * KB

	// IncompleteSuffix is appended to files while they are being fetched
	IncompleteSuffix = ".part"
)

// Client limits
const (
	MaxCookieFileSize = 100 * KB
	LogLimit          = 100
	WorkerBuffer      = 512 * KB
)

// Timeouts and intervals
const (
	RequestTimeout    = 30 * time.Second
	UploadTimeout     = 30 * time.Second
	PollInterval      = 30 * time.Second
	CompletionGrace   = 2 * time.Second
	ReconnectBackoff  = 1 * time.Second
	MaxReconnectDelay = 30 * time.Second
)

// HTTP surface
const (
	SessionHeader   = "X-Session-ID"
	RequestIDHeader = "X-Request-ID"
	CookieFormField = "cookies_file"

	PathDownload = "/api/download"
	PathStatus   = "/api/status"
	PathUpload   = "/upload_cookies"
	PathFiles    = "/downloads/"
	PathSocketIO = "/socket.io/"
	PathSocket   = "/ws"
	PathEvents   = "/events"
)

// Channel buffer sizes
const (
	EventChannelBuffer    = 100
	ProgressChannelBuffer = 16
)

// RuntimeConfig holds settings for the file fetcher
type RuntimeConfig struct {
	UserAgent        string
	WorkerBufferSize int
}

// GetUserAgent returns the configured user agent or the default
func (r *RuntimeConfig) GetUserAgent() string {
	if r == nil || r.UserAgent == "" {
		return "ytclient"
	}
	return r.UserAgent
}

// GetWorkerBufferSize returns configured value or default
func (r *RuntimeConfig) GetWorkerBufferSize() int {
	if r == nil || r.WorkerBufferSize <= 0 {
		return WorkerBuffer
	}
	return r.WorkerBufferSize
}
