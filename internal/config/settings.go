package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	Server   ServerSettings   `mapstructure:"server"`
	Download DownloadSettings `mapstructure:"download"`
	Push     PushSettings     `mapstructure:"push"`
	Poll     PollSettings     `mapstructure:"poll"`
	Sync     SyncSettings     `mapstructure:"sync"`
	Logs     LogSettings      `mapstructure:"logs"`
	TUI      TUISettings      `mapstructure:"tui"`
	Fetch    FetchSettings    `mapstructure:"fetch"`
}

// ServerSettings locates the backend.
type ServerSettings struct {
	URL          string `mapstructure:"url"`
	InsecureHTTP bool   `mapstructure:"insecure_http"`
}

// DownloadSettings contains download request defaults.
type DownloadSettings struct {
	Quality        string `mapstructure:"quality"`
	QualityEnabled bool   `mapstructure:"quality_enabled"`
}

// PushSettings selects the push channel transport.
type PushSettings struct {
	Transport string `mapstructure:"transport"`
}

// PollSettings controls the status poller.
type PollSettings struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SyncSettings controls how progress snapshots are applied.
type SyncSettings struct {
	Policy string `mapstructure:"policy"`
}

// LogSettings controls the developer log.
type LogSettings struct {
	Write bool   `mapstructure:"write"`
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TUISettings contains terminal UI behavior.
type TUISettings struct {
	AutoFollow bool   `mapstructure:"auto_follow"`
	Theme      string `mapstructure:"theme"`
}

// FetchSettings configures retrieval of finished files.
type FetchSettings struct {
	UserAgent  string `mapstructure:"user_agent"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// Field describes one setting: its key, default value and help text.
type Field struct {
	Key         string
	Value       any
	Category    string
	Label       string
	Description string
}

// SettingMeta provides metadata for a single setting (for help rendering).
type SettingMeta struct {
	Key         string
	Label       string
	Description string
	Type        string
}

const (
	KB = 1024
)

var fields = []Field{
	{KeyServerURL, "http://127.0.0.1:8091", "Server", "Server URL", "Base URL of the download backend."},
	{KeyServerInsecureHTTP, false, "Server", "Insecure HTTP", "Allow plain HTTP for non-loopback servers."},
	{KeyDownloadQuality, "720p", "Download", "Quality", "Requested quality tier: best, 2160p, 1440p, 1080p, 720p, 480p, 360p."},
	{KeyDownloadQualityEnabled, true, "Download", "Quality Selection", "Send the quality tier with download requests."},
	{KeyPushTransport, TransportSocketIO, "Network", "Push Transport", "Push channel transport: socketio, websocket or sse."},
	{KeyPollInterval, 30 * time.Second, "Network", "Poll Interval", "How often the status snapshot is refreshed while idle."},
	{KeySyncPolicy, PolicyLastWriteWins, "Network", "Sync Policy", "Progress snapshot policy: last-write-wins or monotonic (drops snapshots with an older seq)."},
	{KeyLogsWrite, false, "Logs", "Write Logs", "Write the developer log to the logs directory."},
	{KeyLogsLevel, "info", "Logs", "Log Level", "panic, fatal, error, warn, info, debug or trace."},
	{KeyLogsJSON, false, "Logs", "JSON Logs", "Use the JSON formatter for the developer log."},
	{KeyTUIAutoFollow, true, "Interface", "Auto Follow", "Scroll the log to the newest entry on every append."},
	{KeyTUITheme, ThemeAdaptive, "Interface", "Theme", "adaptive, light or dark."},
	{KeyFetchUserAgent, "", "Fetch", "User Agent", "User-Agent used when fetching finished files. Leave empty for default."},
	{KeyFetchBufferSize, 512 * KB, "Fetch", "Buffer Size", "I/O buffer size in bytes used when fetching files."},
}

// EnvKeyReplacer maps configuration keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "YTCLIENT"

// Fields returns the registered settings in display order.
func Fields() []Field {
	return fields
}

// Env returns the environment variable bound to the field.
func (f Field) Env() string {
	return EnvPrefix + "_" + strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	out := make(map[string][]SettingMeta)
	for _, f := range fields {
		out[f.Category] = append(out[f.Category], SettingMeta{
			Key:         f.Key,
			Label:       f.Label,
			Description: f.Description,
			Type:        typeName(f.Value),
		})
	}
	return out
}

// CategoryOrder returns the order of categories for help output.
func CategoryOrder() []string {
	return []string{"Server", "Download", "Network", "Logs", "Interface", "Fetch"}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	default:
		return "unknown"
	}
}

// Setup registers defaults and environment bindings on v and reads
// settings.json from the config directory through fs if it exists.
func Setup(v *viper.Viper, fs afero.Fs) error {
	v.SetConfigName("settings")
	v.SetConfigType("json")
	v.SetFs(fs)
	v.AddConfigPath(GetConfigDir())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, f := range fields {
		v.SetDefault(f.Key, f.Value)
		if err := v.BindEnv(f.Key); err != nil {
			return err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}
	return nil
}

// LoadSettings decodes the merged configuration held by v and validates it.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultSettings returns a new Settings instance with the registered defaults.
func DefaultSettings() *Settings {
	v := viper.New()
	for _, f := range fields {
		v.SetDefault(f.Key, f.Value)
	}
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}

// Validate checks enumerated values and the server URL.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.Server.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid %s %q", KeyServerURL, s.Server.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q in %s (use http or https)", u.Scheme, KeyServerURL)
	}
	if !lo.Contains([]string{TransportSocketIO, TransportWebSocket, TransportSSE}, s.Push.Transport) {
		return fmt.Errorf("invalid %s %q", KeyPushTransport, s.Push.Transport)
	}
	if !lo.Contains([]string{PolicyLastWriteWins, PolicyMonotonic}, s.Sync.Policy) {
		return fmt.Errorf("invalid %s %q", KeySyncPolicy, s.Sync.Policy)
	}
	if !lo.Contains([]string{ThemeAdaptive, ThemeLight, ThemeDark}, s.TUI.Theme) {
		return fmt.Errorf("invalid %s %q", KeyTUITheme, s.TUI.Theme)
	}
	if s.Poll.Interval <= 0 {
		return fmt.Errorf("%s must be positive", KeyPollInterval)
	}
	return nil
}

// WriteDefaults writes settings.json with every default value and returns its path.
// An existing file is left untouched.
func WriteDefaults(fs afero.Fs) (string, error) {
	path := GetSettingsPath()
	if exists, err := afero.Exists(fs, path); err != nil {
		return "", err
	} else if exists {
		return path, fmt.Errorf("%s already exists", path)
	}

	tree := make(map[string]any)
	for _, f := range fields {
		section, name, _ := strings.Cut(f.Key, ".")
		m, ok := tree[section].(map[string]any)
		if !ok {
			m = make(map[string]any)
			tree[section] = m
		}
		if d, isDuration := f.Value.(time.Duration); isDuration {
			m[name] = d.String()
		} else {
			m[name] = f.Value
		}
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := afero.WriteFile(fs, tempPath, data, 0o644); err != nil {
		return "", err
	}
	return path, fs.Rename(tempPath, path)
}

// RuntimeConfig is the subset of settings passed to the file fetcher
type RuntimeConfig struct {
	UserAgent        string
	WorkerBufferSize int
}

// ToRuntimeConfig creates a RuntimeConfig from user Settings
func (s *Settings) ToRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		UserAgent:        s.Fetch.UserAgent,
		WorkerBufferSize: s.Fetch.BufferSize,
	}
}

// Values returns the current value of every setting keyed by its config key.
func (s *Settings) Values() map[string]any {
	return map[string]any{
		KeyServerURL:              s.Server.URL,
		KeyServerInsecureHTTP:     s.Server.InsecureHTTP,
		KeyDownloadQuality:        s.Download.Quality,
		KeyDownloadQualityEnabled: s.Download.QualityEnabled,
		KeyPushTransport:          s.Push.Transport,
		KeyPollInterval:           s.Poll.Interval,
		KeySyncPolicy:             s.Sync.Policy,
		KeyLogsWrite:              s.Logs.Write,
		KeyLogsLevel:              s.Logs.Level,
		KeyLogsJSON:               s.Logs.JSON,
		KeyTUIAutoFollow:          s.TUI.AutoFollow,
		KeyTUITheme:               s.TUI.Theme,
		KeyFetchUserAgent:         s.Fetch.UserAgent,
		KeyFetchBufferSize:        s.Fetch.BufferSize,
	}
}
