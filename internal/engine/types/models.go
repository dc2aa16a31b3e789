package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Quality is the target resolution tier requested for a download job.
type Quality string

const (
	QualityBest  Quality = "best"
	Quality2160p Quality = "2160p"
	Quality1440p Quality = "1440p"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"

	// DefaultQuality is the mid tier used when nothing else is configured.
	DefaultQuality = Quality720p
)

// Qualities lists every tier from highest to lowest.
var Qualities = []Quality{
	QualityBest,
	Quality2160p,
	Quality1440p,
	Quality1080p,
	Quality720p,
	Quality480p,
	Quality360p,
}

// ParseQuality maps a user supplied tier name to a Quality.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if q == "" {
		return DefaultQuality, nil
	}
	if !lo.Contains(Qualities, q) {
		return "", fmt.Errorf("unknown quality %q (want one of %s)", s, strings.Join(lo.Map(Qualities, func(q Quality, _ int) string { return string(q) }), ", "))
	}
	return q, nil
}

// JobStatus is the backend's view of a download job.
// Values outside the known set are carried verbatim.
type JobStatus string

const (
	StatusIdle        JobStatus = "idle"
	StatusStarting    JobStatus = "starting"
	StatusDownloading JobStatus = "downloading"
	StatusCompleted   JobStatus = "completed"
)

var statusLabels = map[JobStatus]string{
	StatusIdle:        "Preparing",
	StatusStarting:    "Starting",
	StatusDownloading: "Downloading",
	StatusCompleted:   "Completed",
}

// Known reports whether s is one of the enumerated job states.
func (s JobStatus) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display text for s. Unknown values are shown as-is.
func (s JobStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Progress is a full snapshot of job progress as sent by the backend.
// Seq is optional; backends that number their snapshots set it.
type Progress struct {
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	Status     JobStatus `json:"status"`
	Seq        int64     `json:"seq,omitempty"`
}

// Ratio returns Percentage clamped to [0,1] for progress bars.
func (p Progress) Ratio() float64 {
	switch {
	case p.Percentage <= 0:
		return 0
	case p.Percentage >= 100:
		return 1
	}
	return float64(p.Percentage) / 100
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URLs    []string `json:"urls"`
	Quality Quality  `json:"quality,omitempty"`
}

// DownloadResponse is the success body of POST /api/download.
type DownloadResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// UploadResponse is the success body of POST /upload_cookies.
type UploadResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Success   bool   `json:"success,omitempty"`
}

// ErrorResponse is the body the backend sends with a non-success status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CookieStatus describes the session's uploaded cookie file.
type CookieStatus struct {
	Exists        bool   `json:"exists"`
	ShouldUpdate  bool   `json:"should_update"`
	StatusMessage string `json:"status_message"`
}

// StatusSnapshot is the consolidated GET /api/status response.
type StatusSnapshot struct {
	SessionID       string       `json:"session_id"`
	DownloadDir     string       `json:"download_dir,omitempty"`
	IsDownloading   bool         `json:"is_downloading"`
	Progress        Progress     `json:"progress"`
	Cookies         CookieStatus `json:"cookies"`
	FFmpegAvailable *bool        `json:"ffmpeg_available,omitempty"`
	QualityOptions  []Quality    `json:"quality_options,omitempty"`
	DownloadCount   int          `json:"download_count"`
}

// FileEntry is one downloaded file in a session's listing.
type FileEntry struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	URL      string  `json:"url"`
	Modified float64 `json:"modified,omitempty"`
}

// FileListing is the GET /downloads/{session_id} response.
type FileListing struct {
	Files []FileEntry `json:"files"`
}
