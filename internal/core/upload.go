package core

import (
	"context"
	"io"
	"sync"

	"github.com/ytleenf/ytclient/internal/engine/types"
)

// UploadFile is a validated cookie file ready to send.
type UploadFile struct {
	Name string
	Data []byte
}

// UploadProgress reports bytes sent so far.
type UploadProgress struct {
	Sent  int64
	Total int64
}

// Ratio returns the sent fraction in [0,1].
func (p UploadProgress) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	r := float64(p.Sent) / float64(p.Total)
	if r > 1 {
		return 1
	}
	return r
}

// UploadResult is the single terminal outcome of an upload.
// Exactly one of Response and Err is set.
type UploadResult struct {
	Response *types.UploadResponse
	Err      error
}

// UploadTask is one in-flight cookie upload.
type UploadTask struct {
	progress chan UploadProgress
	done     chan UploadResult
	cancel   context.CancelFunc

	mu       sync.Mutex
	finished bool
}

// NewUploadTask creates a task whose Cancel invokes cancel.
func NewUploadTask(cancel context.CancelFunc) *UploadTask {
	if cancel == nil {
		cancel = func() {}
	}
	return &UploadTask{
		progress: make(chan UploadProgress, types.ProgressChannelBuffer),
		done:     make(chan UploadResult, 1),
		cancel:   cancel,
	}
}

// ResolvedUpload returns a task that has already finished with res.
func ResolvedUpload(res UploadResult) *UploadTask {
	t := NewUploadTask(nil)
	t.Finish(res)
	return t
}

// Progress streams byte progress. It is closed when the task finishes.
func (t *UploadTask) Progress() <-chan UploadProgress {
	return t.progress
}

// Done delivers the terminal result once and is then closed.
func (t *UploadTask) Done() <-chan UploadResult {
	return t.done
}

// Cancel aborts the transfer. The task still finishes with an error result.
func (t *UploadTask) Cancel() {
	t.cancel()
}

// Report publishes progress. Updates are dropped when the reader lags or
// after the task has finished.
func (t *UploadTask) Report(p UploadProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	select {
	case t.progress <- p:
	default:
	}
}

// Finish delivers the terminal result. Calls after the first are ignored.
func (t *UploadTask) Finish(res UploadResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	close(t.progress)
	t.done <- res
	close(t.done)
}

// progressReader counts bytes read from the request body.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	task  *UploadTask
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.task.Report(UploadProgress{Sent: p.sent, Total: p.total})
	}
	return n, err
}
