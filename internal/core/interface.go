package core

import (
	"context"

	"github.com/ytleenf/ytclient/internal/engine/events"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks github.com/ytleenf/ytclient/internal/core Backend

// Backend defines the interface for talking to the download backend.
// An empty sessionID means no session is known yet; the correlation header
// is omitted and the backend creates a session.
type Backend interface {
	// Submit requests a download job for a batch of URLs.
	Submit(ctx context.Context, sessionID string, req types.DownloadRequest) (*types.DownloadResponse, error)

	// Status returns the consolidated status snapshot for the session.
	Status(ctx context.Context, sessionID string) (*types.StatusSnapshot, error)

	// Files lists the files produced for the session.
	Files(ctx context.Context, sessionID string) ([]types.FileEntry, error)

	// Upload starts a cookie file transfer. The returned task reports byte
	// progress and exactly one terminal result.
	Upload(ctx context.Context, sessionID string, file UploadFile) *UploadTask

	// StreamEvents opens the push channel for the session. The channel is
	// closed when ctx is done.
	StreamEvents(ctx context.Context, sessionID string) (<-chan events.Event, error)
}
