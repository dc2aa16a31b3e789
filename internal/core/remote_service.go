package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vfaronov/httpheader"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/utils"
)

const (
	maxErrorBody    = 1024
	maxResponseBody = 4 * types.MB
)

// RemoteService implements Backend over HTTP.
type RemoteService struct {
	BaseURL   string
	UserAgent string
	Transport string

	// Client bounds ordinary requests with a global timeout.
	Client *http.Client
	// StreamClient has no global timeout; uploads and the SSE stream are
	// bounded by their contexts.
	StreamClient *http.Client
	Dialer       *websocket.Dialer

	UploadTimeout     time.Duration
	ReconnectBackoff  time.Duration
	MaxReconnectDelay time.Duration
}

// NewRemoteService creates a service for the backend at baseURL using the
// named push transport.
func NewRemoteService(baseURL, transport, userAgent string) *RemoteService {
	if transport == "" {
		transport = config.TransportSocketIO
	}
	if userAgent == "" {
		userAgent = "ytclient"
	}
	return &RemoteService{
		BaseURL:           strings.TrimRight(baseURL, "/"),
		UserAgent:         userAgent,
		Transport:         transport,
		Client:            &http.Client{Timeout: types.RequestTimeout},
		StreamClient:      &http.Client{},
		Dialer:            &websocket.Dialer{HandshakeTimeout: types.RequestTimeout},
		UploadTimeout:     types.UploadTimeout,
		ReconnectBackoff:  types.ReconnectBackoff,
		MaxReconnectDelay: types.MaxReconnectDelay,
	}
}

// ResolveFileURL turns a listing's retrieval reference into an absolute URL.
func (s *RemoteService) ResolveFileURL(ref string) (string, error) {
	return utils.ResolveURL(s.BaseURL+"/", ref)
}

func (s *RemoteService) headers(sessionID string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", s.UserAgent)
	h.Set(types.RequestIDHeader, uuid.NewString())
	if sessionID != "" {
		h.Set(types.SessionHeader, sessionID)
	}
	return h
}

func (s *RemoteService) newRequest(ctx context.Context, method, path, sessionID string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header = s.headers(sessionID)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and converts failures into TransportError or APIError.
func (s *RemoteService) do(client *http.Client, req *http.Request, op string) (*http.Response, error) {
	utils.Debug("%s %s request_id=%s", req.Method, req.URL.Path, req.Header.Get(types.RequestIDHeader))

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		// Limit error body read to 1KB
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Header, body)}
	}
	return resp, nil
}

func errorMessage(h http.Header, body []byte) string {
	var er types.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return er.Error
	}
	if mtype, _ := httpheader.ContentType(h); mtype == "text/html" {
		return ""
	}
	return strings.TrimSpace(string(body))
}

// decode reads a JSON body into v. HTML error pages from proxies in front of
// the backend are reported as malformed.
func decode(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	if mtype, _ := httpheader.ContentType(resp.Header); mtype == "text/html" {
		return fmt.Errorf("%w: unexpected content type %s", ErrMalformedResponse, mtype)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// Submit requests a download job.
func (s *RemoteService) Submit(ctx context.Context, sessionID string, dr types.DownloadRequest) (*types.DownloadResponse, error) {
	body, err := json.Marshal(dr)
	if err != nil {
		return nil, err
	}
	req, err := s.newRequest(ctx, http.MethodPost, types.PathDownload, sessionID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(s.Client, req, "submit download")
	if err != nil {
		return nil, err
	}
	var out types.DownloadResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the consolidated status snapshot.
func (s *RemoteService) Status(ctx context.Context, sessionID string) (*types.StatusSnapshot, error) {
	req, err := s.newRequest(ctx, http.MethodGet, types.PathStatus, sessionID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(s.Client, req, "fetch status")
	if err != nil {
		return nil, err
	}
	var out types.StatusSnapshot
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Files lists the session's finished files. Without a session there is
// nothing to list and no request is made.
func (s *RemoteService) Files(ctx context.Context, sessionID string) ([]types.FileEntry, error) {
	if sessionID == "" {
		return nil, nil
	}
	req, err := s.newRequest(ctx, http.MethodGet, types.PathFiles+url.PathEscape(sessionID), sessionID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(s.Client, req, "list files")
	if err != nil {
		return nil, err
	}
	var out types.FileListing
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Upload sends file as a multipart form. The transfer is abandoned with
// ErrUploadTimeout once UploadTimeout elapses.
func (s *RemoteService) Upload(ctx context.Context, sessionID string, file UploadFile) *UploadTask {
	ctx, cancel := context.WithTimeoutCause(ctx, s.UploadTimeout, ErrUploadTimeout)
	task := NewUploadTask(cancel)
	go func() {
		defer cancel()
		resp, err := s.upload(ctx, sessionID, file, task)
		if err != nil && errors.Is(context.Cause(ctx), ErrUploadTimeout) {
			err = ErrUploadTimeout
		}
		task.Finish(UploadResult{Response: resp, Err: err})
	}()
	return task
}

func (s *RemoteService) upload(ctx context.Context, sessionID string, file UploadFile, task *UploadTask) (*types.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(types.CookieFormField, file.Name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	total := int64(buf.Len())
	body := &progressReader{r: &buf, total: total, task: task}
	req, err := s.newRequest(ctx, http.MethodPost, types.PathUpload, sessionID, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.do(s.StreamClient, req, "upload cookies")
	if err != nil {
		return nil, err
	}
	var out types.UploadResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
