package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/ytleenf/ytclient/internal/core"
	"github.com/ytleenf/ytclient/internal/engine/events"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/utils"
)

type message any

type (
	setInputMsg     struct{ text string }
	clearInputMsg   struct{}
	clearLogMsg     struct{}
	toggleFollowMsg struct{}
	refreshMsg      struct{}
	refreshFilesMsg struct{}
	pollMsg         struct{}
	graceMsg        struct{}

	setQualityMsg struct{ quality types.Quality }

	submitMsg struct{ reply chan<- error }
	uploadMsg struct {
		path  string
		reply chan<- error
	}

	submitResultMsg struct {
		resp *types.DownloadResponse
		err  error
	}
	statusResultMsg struct {
		snap      *types.StatusSnapshot
		err       error
		reconcile bool
	}
	filesResultMsg struct {
		files []types.FileEntry
		err   error
	}
	uploadProgressMsg struct {
		task     *core.UploadTask
		progress core.UploadProgress
	}
	uploadDoneMsg struct {
		task   *core.UploadTask
		result core.UploadResult
	}
	pushMsg struct {
		gen   int
		event events.Event
	}
)

// handle applies m to the loop state. A returned reply runs after the new
// state is published.
func (c *Client) handle(m message) func() {
	switch m := m.(type) {
	case setInputMsg:
		c.input = m.text
	case clearInputMsg:
		c.input = ""
		c.log.Info("Input cleared")
	case clearLogMsg:
		c.log.Clear()
	case toggleFollowMsg:
		c.log.SetFollow(!c.log.Follow())
	case setQualityMsg:
		c.setQuality(m.quality)

	case submitMsg:
		err := c.handleSubmit()
		return func() { m.reply <- err }
	case submitResultMsg:
		c.handleSubmitResult(m)
	case graceMsg:
		c.handleGrace()

	case pollMsg:
		if c.submit != Ready {
			utils.Debug("status poll skipped: job %s", c.submit)
			return nil
		}
		c.requestStatus()
	case refreshMsg:
		c.requestStatus()
	case statusResultMsg:
		c.handleStatus(m)

	case refreshFilesMsg:
		c.refreshFiles()
	case filesResultMsg:
		c.handleFiles(m)

	case uploadMsg:
		err := c.handleUpload(m.path)
		return func() { m.reply <- err }
	case uploadProgressMsg:
		if m.task == c.uploadTask {
			c.uploadRatio = m.progress.Ratio()
		}
	case uploadDoneMsg:
		c.handleUploadDone(m)

	case pushMsg:
		if m.gen != c.streamGen {
			return nil
		}
		c.handleEvent(m.event)

	default:
		utils.Warn("session: unhandled message %T", m)
	}
	return nil
}

func (c *Client) handleSubmit() error {
	if c.submit != Ready {
		c.log.Warn("A download is already in progress")
		return ErrJobInFlight
	}
	urls := ExtractURLs(c.input)
	if len(urls) == 0 {
		c.log.Warn("Please enter at least one valid YouTube URL")
		return ErrEmptyBatch
	}

	c.submit = Submitting
	c.showProgress = true
	c.pendingCompletion = false
	c.progress.newJob()

	req := types.DownloadRequest{URLs: urls}
	if c.qualityEnabled {
		req.Quality = c.quality
	}
	sid := c.sessionID
	c.spawn(func(ctx context.Context) message {
		resp, err := c.backend.Submit(ctx, sid, req)
		return submitResultMsg{resp: resp, err: err}
	})
	return nil
}

func (c *Client) handleSubmitResult(m submitResultMsg) {
	if m.err != nil {
		c.submit = Ready
		c.pendingCompletion = false
		c.log.Error("Download request failed: " + describeError(m.err))
		return
	}

	c.adoptSession(m.resp.SessionID, false)
	if m.resp.Message != "" {
		c.log.Info(m.resp.Message)
	}
	c.submit = Active
	if c.pendingCompletion {
		c.pendingCompletion = false
		c.armGrace()
	}
}

func (c *Client) applyProgress(p types.Progress) {
	if !c.progress.apply(p) {
		utils.Debug("stale progress snapshot dropped (seq %d)", p.Seq)
		return
	}
	if p.Status != types.StatusCompleted {
		return
	}
	switch c.submit {
	case Active:
		c.armGrace()
	case Submitting:
		c.pendingCompletion = true
	}
}

// armGrace starts the single completion grace timer.
func (c *Client) armGrace() {
	if c.graceArmed {
		return
	}
	c.graceArmed = true
	fire := c.timer(types.CompletionGrace)
	ctx := c.ctx
	c.group.Go(func() error {
		select {
		case <-fire:
			c.send(graceMsg{})
		case <-ctx.Done():
		}
		return nil
	})
}

func (c *Client) handleGrace() {
	c.graceArmed = false
	if c.submit != Active {
		return
	}
	c.submit = Ready
	c.log.Success("Download job finished")
	c.refreshFiles()
}

func (c *Client) requestStatus() {
	c.fetchStatus(false)
}

// fetchStatus asks the backend for a snapshot. With reconcile set, a
// snapshot reporting no running job ends an Active job.
func (c *Client) fetchStatus(reconcile bool) {
	sid := c.sessionID
	c.spawn(func(ctx context.Context) message {
		snap, err := c.backend.Status(ctx, sid)
		return statusResultMsg{snap: snap, err: err, reconcile: reconcile}
	})
}

func (c *Client) handleStatus(m statusResultMsg) {
	defer c.ensureStream()

	if m.err != nil {
		utils.Warn("status poll failed: %v", m.err)
		return
	}
	snap := m.snap
	if c.sessionID == "" {
		c.adoptSession(snap.SessionID, false)
	}

	c.cookiesKnown = true
	c.cookies = snap.Cookies
	c.ffmpeg = snap.FFmpegAvailable
	c.downloadDir = snap.DownloadDir
	c.downloadCount = snap.DownloadCount
	if len(snap.QualityOptions) > 0 {
		c.qualityOptions = snap.QualityOptions
	}

	switch {
	case snap.IsDownloading && c.submit == Ready:
		c.submit = Active
		c.showProgress = true
		c.applyProgress(snap.Progress)
	case m.reconcile && snap.IsDownloading && c.submit == Active:
		c.applyProgress(snap.Progress)
	case m.reconcile && !snap.IsDownloading && c.submit == Active && !c.graceArmed:
		c.applyProgress(snap.Progress)
		if c.graceArmed {
			return
		}
		c.submit = Ready
		c.log.Warn("The server is no longer running this download")
		c.refreshFiles()
	}
}

func (c *Client) refreshFiles() {
	if c.sessionID == "" {
		return
	}
	sid := c.sessionID
	c.spawn(func(ctx context.Context) message {
		files, err := c.backend.Files(ctx, sid)
		return filesResultMsg{files: files, err: err}
	})
}

func (c *Client) handleFiles(m filesResultMsg) {
	if m.err != nil {
		c.log.Warn("Could not refresh the file list: " + describeError(m.err))
		return
	}
	c.files = m.files
	if n := len(m.files); n > 0 {
		c.log.Info(fmt.Sprintf("%d %s ready for retrieval", n, plural(n, "file", "files")))
	}
}

func (c *Client) handleUpload(path string) error {
	if c.upload == Uploading {
		c.log.Warn("A cookie upload is already in progress")
		return ErrUploadInFlight
	}

	c.uploadFile = path
	file, err := ValidateUploadFile(c.fs, path)
	if err != nil {
		c.upload = UploadIdle
		c.uploadFile = ""
		c.uploadRatio = 0
		c.log.Error("Cookie file rejected: " + err.Error())
		return err
	}

	c.upload = Uploading
	c.uploadRatio = 0
	c.log.Info(fmt.Sprintf("Uploading %s (%s)", file.Name, humanize.IBytes(uint64(len(file.Data)))))

	task := c.backend.Upload(c.ctx, c.sessionID, file)
	if task == nil {
		task = core.ResolvedUpload(core.UploadResult{Err: errors.New("upload not started")})
	}
	c.uploadTask = task

	ctx := c.ctx
	c.group.Go(func() error {
		progress := task.Progress()
		for progress != nil {
			select {
			case p, ok := <-progress:
				if !ok {
					progress = nil
					continue
				}
				c.send(uploadProgressMsg{task: task, progress: p})
			case <-ctx.Done():
				return nil
			}
		}
		select {
		case res := <-task.Done():
			c.send(uploadDoneMsg{task: task, result: res})
		case <-ctx.Done():
		}
		return nil
	})
	return nil
}

func (c *Client) handleUploadDone(m uploadDoneMsg) {
	if m.task != c.uploadTask {
		return
	}
	c.uploadTask = nil
	c.uploadFile = ""

	res := m.result
	if res.Err == nil && res.Response == nil {
		res.Err = core.ErrMalformedResponse
	}
	switch {
	case res.Err == nil:
		c.upload = UploadSucceeded
		c.uploadRatio = 1
		c.adoptSession(res.Response.SessionID, false)
		c.cookiesKnown = true
		c.cookies.Exists = true
		msg := res.Response.Message
		if msg == "" {
			msg = "Cookies uploaded"
		}
		c.log.Success(msg)
		c.requestStatus()
	case errors.Is(res.Err, core.ErrUploadTimeout):
		c.upload = UploadTimedOut
		c.log.Error(fmt.Sprintf("Cookie upload timed out after %s", types.UploadTimeout))
	default:
		c.upload = UploadFailed
		c.log.Error("Cookie upload failed: " + describeError(res.Err))
	}
}

func (c *Client) handleEvent(ev events.Event) {
	switch ev := ev.(type) {
	case events.ConnectMsg:
		c.connected = true
		c.log.Success("Connected to server")
		// Events missed while the channel was down are recovered from status.
		c.fetchStatus(c.submit == Active)
	case events.DisconnectMsg:
		c.connected = false
		c.log.Error("Disconnected from server")
		if ev.Err != nil {
			utils.Debug("push channel dropped: %v", ev.Err)
		}
	case events.LogMsg:
		c.log.Info(ev.Message)
	case events.ProgressMsg:
		c.applyProgress(ev.Progress)
	case events.ConnectedMsg:
		utils.Debug("push channel joined session %s", ev.SessionID)
		c.adoptSession(ev.SessionID, true)
	case events.UnknownMsg:
		utils.Debug("ignoring push event %q", ev.Name)
	}
}

func (c *Client) ensureStream() {
	if !c.streamStarted {
		c.startStream(c.sessionID)
	}
}

// startStream (re)opens the push channel for sid. Events from earlier
// streams are discarded by generation.
func (c *Client) startStream(sid string) {
	if c.streamCancel != nil {
		c.streamCancel()
	}
	c.streamGen++
	gen := c.streamGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.streamCancel = cancel
	c.streamSession = sid
	c.streamStarted = true
	c.connected = false

	c.group.Go(func() error {
		ch, err := c.backend.StreamEvents(ctx, sid)
		if err != nil {
			utils.Error("open push channel: %v", err)
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-ch:
				if !ok {
					return nil
				}
				c.send(pushMsg{gen: gen, event: ev})
			}
		}
	})
}

func describeError(err error) string {
	var apiErr *core.APIError
	var tErr *core.TransportError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Error()
	case errors.As(err, &tErr):
		return "network error: " + tErr.Err.Error()
	case errors.Is(err, core.ErrMalformedResponse):
		return "unexpected response from server"
	}
	return err.Error()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
