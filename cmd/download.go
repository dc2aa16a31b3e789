package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/session"
)

var errJobRejected = errors.New("download request was not accepted")

var downloadCmd = &cobra.Command{
	Use:     "download [url]...",
	Aliases: []string{"get", "add"},
	Short:   "Submit URLs to the server and follow the job",
	Long: `Submit a batch of YouTube URLs to the download server without the TUI.
Log lines and progress are printed until the job completes or is rejected.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := append([]string(nil), args...)
		if batchFile, _ := cmd.Flags().GetString("batch"); batchFile != "" {
			fileURLs, err := readURLsFromFile(appFs, batchFile)
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}
			urls = append(urls, fileURLs...)
		}
		if len(session.ExtractURLs(strings.Join(urls, "\n"))) == 0 {
			return session.ErrEmptyBatch
		}
		noWait, _ := cmd.Flags().GetBool("no-wait")

		return runHeadless(cmd, func(ctx context.Context, h *headless) error {
			h.client.SetInput(strings.Join(urls, "\n"))
			if err := h.client.Submit(ctx); err != nil {
				return err
			}
			if noWait {
				return h.waitFor(ctx, jobAccepted)
			}
			return h.waitFor(ctx, jobFinished(h))
		})
	},
}

// jobAccepted finishes once the submission has been answered.
func jobAccepted(st session.State) (bool, error) {
	switch st.Submit {
	case session.Active:
		return true, nil
	case session.Ready:
		return true, errJobRejected
	}
	return false, nil
}

// jobFinished follows a submitted job, printing progress changes, until the
// client returns to Ready. A job that never became active was rejected.
func jobFinished(h *headless) func(session.State) (bool, error) {
	var (
		accepted bool
		last     types.Progress
	)
	return func(st session.State) (bool, error) {
		if st.ShowProgress && st.Progress != last {
			last = st.Progress
			printProgress(h, last)
		}
		switch st.Submit {
		case session.Active:
			accepted = true
		case session.Ready:
			if !accepted {
				return true, errJobRejected
			}
			return true, nil
		}
		return false, nil
	}
}

func printProgress(h *headless, p types.Progress) {
	items := ""
	if p.Total > 0 {
		items = fmt.Sprintf(" (%d/%d)", p.Current, p.Total)
	}
	_, _ = fmt.Fprintf(h.out, "  %s %3d%%%s\n", p.Status.Label(), p.Percentage, items)
}

func init() {
	downloadCmd.Flags().StringP("batch", "b", "", "File containing URLs to download (one per line)")
	downloadCmd.Flags().String("session", "", "Existing session ID to download into")
	downloadCmd.Flags().Bool("no-wait", false, "Return once the server has accepted the job")
	downloadCmd.Flags().Bool("quiet", false, "Do not print the session log")
	rootCmd.AddCommand(downloadCmd)
}
