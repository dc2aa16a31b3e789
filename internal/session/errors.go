package session

import "errors"

var (
	ErrEmptyBatch     = errors.New("no valid YouTube URLs entered")
	ErrJobInFlight    = errors.New("a download is already in progress")
	ErrUploadInFlight = errors.New("an upload is already in progress")
	ErrNotPlainText   = errors.New("cookie file must be a plain-text .txt file")
	ErrFileEmpty      = errors.New("cookie file is empty")
	ErrFileTooLarge   = errors.New("cookie file exceeds 100 KiB")
	ErrClosed         = errors.New("session client stopped")
)
