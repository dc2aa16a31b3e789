package session

import (
	"github.com/ytleenf/ytclient/internal/engine/types"
)

// SubmitState is the download submission state.
type SubmitState int

const (
	Ready SubmitState = iota
	Submitting
	Active
)

func (s SubmitState) String() string {
	switch s {
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Active:
		return "active"
	}
	return "unknown"
}

// UploadState is the state of the latest cookie upload attempt.
type UploadState int

const (
	UploadIdle UploadState = iota
	Uploading
	UploadSucceeded
	UploadFailed
	UploadTimedOut
)

func (s UploadState) String() string {
	switch s {
	case UploadIdle:
		return "idle"
	case Uploading:
		return "uploading"
	case UploadSucceeded:
		return "succeeded"
	case UploadFailed:
		return "failed"
	case UploadTimedOut:
		return "timed-out"
	}
	return "unknown"
}

// State is an immutable snapshot of the client, published after every
// handled message.
type State struct {
	Revision uint64

	SessionID string
	Connected bool

	Input     string
	URLs      []string
	URLCount  int
	CanSubmit bool

	Quality        types.Quality
	QualityEnabled bool
	QualityOptions []types.Quality

	Submit       SubmitState
	ShowProgress bool
	Progress     types.Progress

	Upload      UploadState
	UploadRatio float64
	UploadFile  string

	CookiesKnown    bool
	Cookies         types.CookieStatus
	FFmpegAvailable *bool
	DownloadDir     string
	DownloadCount   int

	Files []types.FileEntry

	Log    []LogEntry
	Follow bool
}

// Busy reports whether a download job is being submitted or running.
func (s State) Busy() bool {
	return s.Submit != Ready
}
