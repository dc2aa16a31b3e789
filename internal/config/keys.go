package config

// Configuration keys. Each maps to YTCLIENT_<KEY> with dots replaced by underscores.
const (
	KeyServerURL          = "server.url"
	KeyServerInsecureHTTP = "server.insecure_http"

	KeyDownloadQuality        = "download.quality"
	KeyDownloadQualityEnabled = "download.quality_enabled"

	KeyPushTransport = "push.transport"
	KeyPollInterval  = "poll.interval"
	KeySyncPolicy    = "sync.policy"

	KeyLogsWrite = "logs.write"
	KeyLogsLevel = "logs.level"
	KeyLogsJSON  = "logs.json"

	KeyTUIAutoFollow = "tui.auto_follow"
	KeyTUITheme      = "tui.theme"

	KeyFetchUserAgent  = "fetch.user_agent"
	KeyFetchBufferSize = "fetch.buffer_size"
)

// Push transports
const (
	TransportSocketIO  = "socketio"
	TransportWebSocket = "websocket"
	TransportSSE       = "sse"
)

// Progress synchronization policies
const (
	PolicyLastWriteWins = "last-write-wins"
	PolicyMonotonic     = "monotonic"
)

// Themes
const (
	ThemeAdaptive = "adaptive"
	ThemeLight    = "light"
	ThemeDark     = "dark"
)
