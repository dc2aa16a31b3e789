package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/core"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

// Bus topics the client publishes on.
const (
	TopicState = "session:state"
	TopicLog   = "session:log"
)

const inboxSize = 64

// Options configures a Client.
type Options struct {
	Backend        core.Backend
	Fs             afero.Fs
	Bus            EventBus.Bus
	Quality        types.Quality
	QualityEnabled bool
	PollInterval   time.Duration
	SyncPolicy     string
	AutoFollow     bool
	LogLimit       int

	// SessionID resumes an existing backend session. Empty lets the backend
	// assign one.
	SessionID string

	// Timer returns a channel that fires once after d. Defaults to time.After.
	Timer func(d time.Duration) <-chan time.Time
}

// OptionsFromSettings builds client options from user settings.
func OptionsFromSettings(s *config.Settings, backend core.Backend, fs afero.Fs) (Options, error) {
	q, err := types.ParseQuality(s.Download.Quality)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Backend:        backend,
		Fs:             fs,
		Quality:        q,
		QualityEnabled: s.Download.QualityEnabled,
		PollInterval:   s.Poll.Interval,
		SyncPolicy:     s.Sync.Policy,
		AutoFollow:     s.TUI.AutoFollow,
	}, nil
}

// Client is the session client. All state is owned by one loop goroutine
// started by Run; the exported methods post messages to it.
type Client struct {
	backend      core.Backend
	fs           afero.Fs
	bus          EventBus.Bus
	timer        func(time.Duration) <-chan time.Time
	pollInterval time.Duration

	inbox    chan message
	done     chan struct{}
	started  atomic.Bool
	snapshot atomic.Pointer[State]

	// Loop-owned.
	group    *errgroup.Group
	ctx      context.Context
	revision uint64

	sessionID     string
	streamSession string
	streamStarted bool
	streamGen     int
	streamCancel  context.CancelFunc
	connected     bool

	input          string
	quality        types.Quality
	qualityEnabled bool
	qualityOptions []types.Quality

	submit            SubmitState
	pendingCompletion bool
	graceArmed        bool
	showProgress      bool
	progress          progressTracker

	upload      UploadState
	uploadRatio float64
	uploadFile  string
	uploadTask  *core.UploadTask

	cookiesKnown  bool
	cookies       types.CookieStatus
	ffmpeg        *bool
	downloadDir   string
	downloadCount int
	files         []types.FileEntry

	log *LogSink
}

// New creates a client. Run must be called to start it.
func New(opts Options) (*Client, error) {
	if opts.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Bus == nil {
		opts.Bus = EventBus.New()
	}
	if opts.Quality == "" {
		opts.Quality = types.DefaultQuality
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = types.PollInterval
	}
	if opts.Timer == nil {
		opts.Timer = time.After
	}

	c := &Client{
		backend:        opts.Backend,
		fs:             opts.Fs,
		bus:            opts.Bus,
		timer:          opts.Timer,
		pollInterval:   opts.PollInterval,
		sessionID:      opts.SessionID,
		inbox:          make(chan message, inboxSize),
		done:           make(chan struct{}),
		quality:        opts.Quality,
		qualityEnabled: opts.QualityEnabled,
		qualityOptions: types.Qualities,
		progress:       newProgressTracker(opts.SyncPolicy),
		log:            NewLogSink(opts.LogLimit, opts.AutoFollow),
	}
	c.log.onAppend = func(e LogEntry) { c.bus.Publish(TopicLog, e) }
	st := c.state()
	c.snapshot.Store(&st)
	return c, nil
}

// Run starts the loop, the status poller and the push pump, and blocks until
// ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("session: client already running")
	}

	g, ctx := errgroup.WithContext(ctx)
	c.group = g
	c.ctx = ctx
	g.Go(func() error { return c.loop(ctx) })
	g.Go(func() error { return c.poll(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Client) loop(ctx context.Context) error {
	defer close(c.done)
	defer c.shutdown()

	c.requestStatus()
	c.publish()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-c.inbox:
			reply := c.handle(m)
			c.publish()
			if reply != nil {
				reply()
			}
		}
	}
}

func (c *Client) poll(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.send(pollMsg{})
		}
	}
}

func (c *Client) shutdown() {
	if c.streamCancel != nil {
		c.streamCancel()
	}
	if c.uploadTask != nil {
		c.uploadTask.Cancel()
	}
}

// send posts m to the loop. It gives up once the loop has exited.
func (c *Client) send(m message) {
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

// spawn runs blocking work off the loop and posts its result back.
func (c *Client) spawn(work func(ctx context.Context) message) {
	ctx := c.ctx
	c.group.Go(func() error {
		c.send(work(ctx))
		return nil
	})
}

func (c *Client) publish() {
	c.revision++
	st := c.state()
	c.snapshot.Store(&st)
	c.bus.Publish(TopicState, st)
}

func (c *Client) state() State {
	urls := ExtractURLs(c.input)
	return State{
		Revision:        c.revision,
		SessionID:       c.sessionID,
		Connected:       c.connected,
		Input:           c.input,
		URLs:            urls,
		URLCount:        len(urls),
		CanSubmit:       c.submit == Ready && len(urls) > 0,
		Quality:         c.quality,
		QualityEnabled:  c.qualityEnabled,
		QualityOptions:  append([]types.Quality(nil), c.qualityOptions...),
		Submit:          c.submit,
		ShowProgress:    c.showProgress,
		Progress:        c.progress.current,
		Upload:          c.upload,
		UploadRatio:     c.uploadRatio,
		UploadFile:      c.uploadFile,
		CookiesKnown:    c.cookiesKnown,
		Cookies:         c.cookies,
		FFmpegAvailable: c.ffmpeg,
		DownloadDir:     c.downloadDir,
		DownloadCount:   c.downloadCount,
		Files:           append([]types.FileEntry(nil), c.files...),
		Log:             c.log.Entries(),
		Follow:          c.log.Follow(),
	}
}

// Snapshot returns the most recently published state.
func (c *Client) Snapshot() State {
	return *c.snapshot.Load()
}

// Subscribe registers fn for every published state, delivered in order on a
// bus goroutine. fn must not wait on the client's Submit or Upload.
func (c *Client) Subscribe(fn func(State)) (func(), error) {
	if err := c.bus.SubscribeAsync(TopicState, fn, true); err != nil {
		return nil, err
	}
	return func() { _ = c.bus.Unsubscribe(TopicState, fn) }, nil
}

// SubscribeLog registers fn for every appended log entry.
func (c *Client) SubscribeLog(fn func(LogEntry)) (func(), error) {
	if err := c.bus.SubscribeAsync(TopicLog, fn, true); err != nil {
		return nil, err
	}
	return func() { _ = c.bus.Unsubscribe(TopicLog, fn) }, nil
}

// Done is closed when the client loop has stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) SetInput(text string) { c.send(setInputMsg{text: text}) }
func (c *Client) ClearInput()          { c.send(clearInputMsg{}) }
func (c *Client) ClearLog()            { c.send(clearLogMsg{}) }
func (c *Client) ToggleFollow()        { c.send(toggleFollowMsg{}) }
func (c *Client) Refresh()             { c.send(refreshMsg{}) }
func (c *Client) RefreshFiles()        { c.send(refreshFilesMsg{}) }

// SetQuality selects the quality tier for the next submission.
func (c *Client) SetQuality(q types.Quality) { c.send(setQualityMsg{quality: q}) }

// Submit asks the client to send the current batch. The returned error
// reports admission only (ErrEmptyBatch, ErrJobInFlight); the request
// outcome arrives in the log and state.
func (c *Client) Submit(ctx context.Context) error {
	reply := make(chan error, 1)
	c.send(submitMsg{reply: reply})
	return c.await(ctx, reply)
}

// Upload validates the cookie file at path and starts the transfer. The
// returned error reports validation and single-flight refusal only.
func (c *Client) Upload(ctx context.Context, path string) error {
	reply := make(chan error, 1)
	c.send(uploadMsg{path: path, reply: reply})
	return c.await(ctx, reply)
}

func (c *Client) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// adoptSession applies last-writer-wins to the session id. A change that
// did not come from the push channel moves the channel to the new room.
func (c *Client) adoptSession(id string, fromStream bool) {
	if id == "" || id == c.sessionID {
		return
	}
	c.sessionID = id
	if fromStream {
		c.streamSession = id
		return
	}
	if c.streamStarted && id != c.streamSession {
		c.startStream(id)
	}
}

func (c *Client) setQuality(q types.Quality) {
	if !lo.Contains(c.qualityOptions, q) {
		c.log.Warn("Quality " + string(q) + " is not offered by the server")
		return
	}
	c.quality = q
}
