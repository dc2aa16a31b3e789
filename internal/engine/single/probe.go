package single

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vfaronov/httpheader"

	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/utils"
)

// ProbeResult contains the metadata of a retrieval link
type ProbeResult struct {
	FileSize      int64 // -1 when the server does not say
	SupportsRange bool
	Filename      string
	ContentType   string
}

// Probe sends GET with Range: bytes=0-0 to learn the name and size a fetch
// of rawurl would produce, without transferring the body.
func (f *Fetcher) Probe(ctx context.Context, rawurl string, entry types.FileEntry) (*ProbeResult, error) {
	utils.Debug("Probing %s", rawurl)

	req, err := f.newRequest(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe request: %w", err)
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	// Not drained: a server ignoring Range sends the whole file.
	defer func() { _ = resp.Body.Close() }()

	result := &ProbeResult{FileSize: -1}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		result.SupportsRange = true
		// Content-Range: bytes 0-0/TOTAL or bytes 0-0/*
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			if idx := strings.LastIndex(cr, "/"); idx != -1 && cr[idx+1:] != "*" {
				if n, err := strconv.ParseInt(cr[idx+1:], 10, 64); err == nil {
					result.FileSize = n
				}
			}
		}
	case http.StatusOK:
		result.FileSize = resp.ContentLength
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	result.Filename = fileName(resp.Header, entry.Name, rawurl)
	result.ContentType, _ = httpheader.ContentType(resp.Header)

	utils.Debug("Probe complete - filename: %s, size: %d, range: %v",
		result.Filename, result.FileSize, result.SupportsRange)
	return result, nil
}

// AlreadyFetched reports whether destDir already holds a file with the
// probed name and size.
func (f *Fetcher) AlreadyFetched(destDir string, p *ProbeResult) bool {
	if p == nil || p.FileSize < 0 {
		return false
	}
	info, err := f.Fs.Stat(filepath.Join(destDir, p.Filename))
	return err == nil && !info.IsDir() && info.Size() == p.FileSize
}
