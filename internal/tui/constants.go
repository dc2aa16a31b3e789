package tui

import "time"

const (
	// Timeouts and Intervals
	NotificationDuration = 4 * time.Second

	// Input Dimensions
	InputWidth    = 60
	EditorHeight  = 6
	PathInputSize = 256

	// Layout
	LeftWidthRatio    = 0.6 // Editor and progress take 60% width
	HeaderHeight      = 1
	EditorBoxHeight   = EditorHeight + 4
	ProgressBoxHeight = 6
	MinLogHeight      = 6
	DefaultPaddingX   = 1
	DefaultPaddingY   = 0

	// Settings modal
	SettingsWidth  = 80
	SettingsHeight = 18
)
