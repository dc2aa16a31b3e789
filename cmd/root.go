package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/core"
	"github.com/ytleenf/ytclient/internal/session"
	"github.com/ytleenf/ytclient/internal/tui"
	"github.com/ytleenf/ytclient/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	// appFs backs settings, developer logs, cookie files and fetched files.
	appFs afero.Fs = afero.NewOsFs()

	cfg       = viper.New()
	settings  *config.Settings
	logCloser io.Closer

	readClipboard = clipboard.ReadAll
)

// flagBindings maps persistent flags onto configuration keys.
var flagBindings = map[string]string{
	"server":        config.KeyServerURL,
	"insecure-http": config.KeyServerInsecureHTTP,
	"transport":     config.KeyPushTransport,
	"quality":       config.KeyDownloadQuality,
	"sync-policy":   config.KeySyncPolicy,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ytclient [url]...",
	Short: "Terminal client for a YouTube download server",
	Long: `ytclient submits batches of YouTube URLs to a download server, follows
job progress over the server's push channel and manages the session's
cookie file and finished downloads.`,
	Version:           Version,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
			logCloser = nil
		}
	},
	RunE: runTUI,
}

// initConfig merges defaults, settings.json, YTCLIENT_* variables and flags.
func initConfig(cmd *cobra.Command, args []string) error {
	cfg = viper.New()
	if err := config.Setup(cfg, appFs); err != nil {
		return err
	}
	for name, key := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := cfg.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	base, err := resolveServerURL(cfg.GetString(config.KeyServerURL), cfg.GetBool(config.KeyServerInsecureHTTP))
	if err != nil {
		return err
	}
	cfg.Set(config.KeyServerURL, base)

	s, err := config.LoadSettings(cfg)
	if err != nil {
		return err
	}
	settings = s

	closer, err := utils.SetupLogging(s.Logs, appFs)
	if err != nil {
		return err
	}
	logCloser = closer
	utils.Debug("ytclient %s (%s) using %s over %s", Version, BuildTime, s.Server.URL, s.Push.Transport)
	return nil
}

func newService() *core.RemoteService {
	return core.NewRemoteService(settings.Server.URL, settings.Push.Transport, "ytclient/"+Version)
}

// newSession builds the backend service and an unstarted session client
// publishing on bus. A nil bus gets a private one; an empty sessionID lets
// the backend assign one.
func newSession(bus EventBus.Bus, sessionID string) (*core.RemoteService, *session.Client, error) {
	svc := newService()
	opts, err := session.OptionsFromSettings(settings, svc, appFs)
	if err != nil {
		return nil, nil, err
	}
	opts.Bus = bus
	opts.SessionID = sessionID
	client, err := session.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return svc, client, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	isMaster, err := AcquireLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !isMaster {
		return errors.New("ytclient is already running in another terminal; use 'ytclient download <url>' instead")
	}
	defer func() { _ = ReleaseLock() }()

	initial, err := initialInput(cmd, args)
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	_, client, err := newSession(nil, sessionID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tui.ApplyTheme(settings.TUI.Theme)
	m := tui.NewRootModel(client, settings,
		tui.WithContext(ctx),
		tui.WithInitialInput(initial),
	)
	unsubscribe, err := client.Subscribe(m.Notifier())
	if err != nil {
		return err
	}
	defer unsubscribe()

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, tuiErr := p.Run()
	cancel()
	if err := <-runErr; err != nil && tuiErr == nil {
		tuiErr = err
	}
	return tuiErr
}

// initialInput collects URLs from arguments, --batch and --clipboard into
// editor text, one URL per line.
func initialInput(cmd *cobra.Command, args []string) (string, error) {
	lines := append([]string(nil), args...)

	if batchFile, _ := cmd.Flags().GetString("batch"); batchFile != "" {
		fileURLs, err := readURLsFromFile(appFs, batchFile)
		if err != nil {
			return "", fmt.Errorf("read batch file: %w", err)
		}
		lines = append(lines, fileURLs...)
	}

	if fromClipboard, _ := cmd.Flags().GetBool("clipboard"); fromClipboard {
		text, err := readClipboard()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		if text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("server", "s", "", "Download server URL (default from settings)")
	pf.Bool("insecure-http", false, "Allow plain HTTP for non-loopback servers")
	pf.String("transport", "", "Push channel transport: socketio, websocket or sse")
	pf.StringP("quality", "q", "", "Quality tier for new downloads")
	pf.String("sync-policy", "", "Progress snapshot policy: last-write-wins or monotonic")

	rootCmd.Flags().StringP("batch", "b", "", "File containing URLs to download (one per line)")
	rootCmd.Flags().Bool("clipboard", false, "Pre-fill the editor with the clipboard contents")
	rootCmd.Flags().String("session", "", "Resume an existing session ID")
	rootCmd.SetVersionTemplate("ytclient version {{.Version}}\n")
}
