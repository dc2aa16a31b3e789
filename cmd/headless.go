package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/asaskevich/EventBus"
	"github.com/spf13/cobra"

	"github.com/ytleenf/ytclient/internal/core"
	"github.com/ytleenf/ytclient/internal/session"
)

var severityMarks = map[session.Severity]string{
	session.SeverityInfo:    " ",
	session.SeveritySuccess: "✔",
	session.SeverityWarning: "!",
	session.SeverityError:   "✖",
}

// headless is a session client driven from a one-shot command instead of
// the TUI.
type headless struct {
	client *session.Client
	svc    *core.RemoteService
	out    io.Writer
	wake   chan struct{}
}

// runHeadless starts a session client, prints its log to the command's
// output and runs fn against it. The client is stopped when fn returns, and
// the session it ended up in is printed so later commands can reuse it.
func runHeadless(cmd *cobra.Command, fn func(ctx context.Context, h *headless) error) error {
	bus := EventBus.New()
	sessionID, _ := cmd.Flags().GetString("session")
	svc, client, err := newSession(bus, sessionID)
	if err != nil {
		return err
	}
	h := &headless{
		client: client,
		svc:    svc,
		out:    &lockedWriter{w: cmd.OutOrStdout()},
		wake:   make(chan struct{}, 1),
	}

	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		unsubscribeLog, err := client.SubscribeLog(func(e session.LogEntry) {
			printLogEntry(h.out, e)
		})
		if err != nil {
			return err
		}
		defer unsubscribeLog()
	}
	unsubscribe, err := client.Subscribe(func(session.State) {
		select {
		case h.wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	err = fn(ctx, h)
	cancel()
	if rerr := <-runErr; rerr != nil && err == nil {
		err = rerr
	}
	bus.WaitAsync()
	if id := client.Snapshot().SessionID; id != "" {
		_, _ = fmt.Fprintf(h.out, "Session: %s\n", id)
	}
	return err
}

// waitFor evaluates done against the latest state after every change until
// it reports completion or an error.
func (h *headless) waitFor(ctx context.Context, done func(session.State) (bool, error)) error {
	for {
		if finished, err := done(h.client.Snapshot()); finished || err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.client.Done():
			return session.ErrClosed
		case <-h.wake:
		}
	}
}

func printLogEntry(w io.Writer, e session.LogEntry) {
	mark, ok := severityMarks[e.Severity]
	if !ok {
		mark = " "
	}
	_, _ = fmt.Fprintf(w, "%s %s %s\n", e.Time.Format("15:04:05"), mark, e.Message)
}
