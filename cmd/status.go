package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ytleenf/ytclient/internal/engine/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server status for a session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		asJSON, _ := cmd.Flags().GetBool("json")

		snap, err := newService().Status(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), settings.Server.URL, snap, asJSON)
	},
}

func printStatus(w io.Writer, server string, snap *types.StatusSnapshot, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	ffmpeg := "unknown"
	if snap.FFmpegAvailable != nil {
		ffmpeg = "missing"
		if *snap.FFmpegAvailable {
			ffmpeg = "available"
		}
	}

	cookies := "none uploaded"
	if snap.Cookies.Exists {
		cookies = "present"
	}
	if snap.Cookies.StatusMessage != "" {
		cookies += " (" + snap.Cookies.StatusMessage + ")"
	}

	job := "idle"
	if snap.IsDownloading {
		p := snap.Progress
		job = fmt.Sprintf("%s %d%%", p.Status.Label(), p.Percentage)
		if p.Total > 0 {
			job += fmt.Sprintf(" (%d/%d)", p.Current, p.Total)
		}
	}

	fmt.Fprintf(w, "Server:     %s\n", server)
	fmt.Fprintf(w, "Session:    %s\n", snap.SessionID)
	fmt.Fprintf(w, "Folder:     %s\n", snap.DownloadDir)
	fmt.Fprintf(w, "FFmpeg:     %s\n", ffmpeg)
	fmt.Fprintf(w, "Downloads:  %d\n", snap.DownloadCount)
	fmt.Fprintf(w, "Cookies:    %s\n", cookies)
	fmt.Fprintf(w, "Job:        %s\n", job)
	return nil
}

func init() {
	statusCmd.Flags().String("session", "", "Session ID (default: let the server assign one)")
	statusCmd.Flags().Bool("json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}
