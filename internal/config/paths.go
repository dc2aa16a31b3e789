package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const appName = "ytclient"

// GetConfigDir returns the directory holding settings.json and log files.
func GetConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "."+appName)
	}
	return filepath.Join(dir, appName)
}

// GetRuntimeDir returns the directory for lock files.
func GetRuntimeDir() string {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return GetConfigDir()
}

// GetLogsDir returns the directory developer logs are written to.
func GetLogsDir() string {
	return filepath.Join(GetConfigDir(), "logs")
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetConfigDir(), "settings.json")
}

// EnsureDirs creates the config, runtime and log directories.
func EnsureDirs(fs afero.Fs) error {
	for _, dir := range []string{GetConfigDir(), GetRuntimeDir(), GetLogsDir()} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
