package types

import "github.com/ytleenf/ytclient/internal/config"

// ConvertRuntimeConfig converts the app-level RuntimeConfig to the engine-level RuntimeConfig.
func ConvertRuntimeConfig(rc *config.RuntimeConfig) *RuntimeConfig {
	if rc == nil {
		return nil
	}
	return &RuntimeConfig{
		UserAgent:        rc.UserAgent,
		WorkerBufferSize: rc.WorkerBufferSize,
	}
}
