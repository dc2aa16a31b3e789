package single

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/vfaronov/httpheader"

	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/utils"
)

// Fetcher retrieves finished files from the server's retrieval links over a
// single connection. A partial file is written next to the destination with
// the .part suffix and renamed into place on success. Interrupted transfers
// restart from the beginning.
type Fetcher struct {
	Client  *http.Client
	Fs      afero.Fs
	Runtime *types.RuntimeConfig
	Headers map[string]string // Extra request headers (session id, request id)

	// OnProgress, when set, is called after every write with the bytes
	// written so far and the expected total (-1 when unknown).
	OnProgress func(written, total int64)
}

// NewFetcher creates a fetcher writing through fs.
func NewFetcher(fs afero.Fs, runtime *types.RuntimeConfig) *Fetcher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Fetcher{
		Client:  &http.Client{Transport: http.DefaultTransport},
		Fs:      fs,
		Runtime: runtime,
	}
}

// Fetch downloads rawurl into destDir and returns the final path. The file
// name comes from the response's Content-Disposition, falling back to the
// listing name and then to the last URL segment.
func (f *Fetcher) Fetch(ctx context.Context, rawurl, destDir string, entry types.FileEntry) (string, error) {
	req, err := f.newRequest(ctx, rawurl)
	if err != nil {
		return "", err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.Debug("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	name := fileName(resp.Header, entry.Name, rawurl)
	if err := f.Fs.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, name)
	workingPath := destPath + types.IncompleteSuffix

	outFile, err := f.Fs.Create(workingPath)
	if err != nil {
		return "", err
	}

	success := false
	defer func() {
		_ = outFile.Close()
		if !success {
			_ = f.Fs.Remove(workingPath)
		}
	}()

	start := time.Now()
	total := resp.ContentLength
	var written int64
	buf := make([]byte, f.Runtime.GetWorkerBufferSize())

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		nr, readErr := resp.Body.Read(buf)
		if nr > 0 {
			nw, writeErr := outFile.Write(buf[0:nr])
			if nw > 0 {
				written += int64(nw)
				if f.OnProgress != nil {
					f.OnProgress(written, total)
				}
			}
			if writeErr != nil {
				return "", fmt.Errorf("write error: %w", writeErr)
			}
			if nr != nw {
				return "", io.ErrShortWrite
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return "", fmt.Errorf("read error: %w", readErr)
		}
	}

	if total >= 0 && written != total {
		return "", fmt.Errorf("short transfer: got %d of %d bytes", written, total)
	}
	if err := outFile.Sync(); err != nil {
		return "", fmt.Errorf("sync error: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return "", fmt.Errorf("close error: %w", err)
	}

	if err := f.Fs.Rename(workingPath, destPath); err != nil {
		// Cross-device rename
		if copyErr := copyFile(f.Fs, workingPath, destPath); copyErr != nil {
			return "", fmt.Errorf("failed to finalize file: %w", copyErr)
		}
		_ = f.Fs.Remove(workingPath)
	}

	success = true

	elapsed := time.Since(start)
	utils.Debug("Fetched %s (%s) in %s", destPath, humanize.IBytes(uint64(written)), elapsed.Round(time.Millisecond))
	return destPath, nil
}

func (f *Fetcher) newRequest(ctx context.Context, rawurl string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, err
	}
	for key, val := range f.Headers {
		req.Header.Set(key, val)
	}
	req.Header.Set("User-Agent", f.Runtime.GetUserAgent())
	return req, nil
}

func fileName(h http.Header, listed, rawurl string) string {
	fallback := "download"
	if u, err := url.Parse(rawurl); err == nil {
		fallback = utils.SanitizeFilename(path.Base(u.Path), fallback)
	}
	fallback = utils.SanitizeFilename(listed, fallback)
	if _, fn, _ := httpheader.ContentDisposition(h); fn != "" {
		return utils.SanitizeFilename(fn, fallback)
	}
	return fallback
}

// copyFile copies src to dst within fs.
func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			utils.Debug("Error closing input file: %v", err)
		}
	}()

	out, err := fs.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			utils.Debug("Error closing output file: %v", err)
		}
	}()

	buf := make([]byte, types.MB)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		return err
	}
	return out.Sync()
}
