package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ytleenf/ytclient/internal/session"
)

var (
	errUploadFailed   = errors.New("cookie upload failed")
	errUploadTimedOut = errors.New("cookie upload timed out")
)

var uploadCmd = &cobra.Command{
	Use:   "upload-cookies FILE",
	Short: "Upload a Netscape cookies.txt file for the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, func(ctx context.Context, h *headless) error {
			if err := h.client.Upload(ctx, args[0]); err != nil {
				return err
			}
			return h.waitFor(ctx, uploadFinished)
		})
	},
}

func uploadFinished(st session.State) (bool, error) {
	switch st.Upload {
	case session.UploadSucceeded:
		return true, nil
	case session.UploadFailed:
		return true, errUploadFailed
	case session.UploadTimedOut:
		return true, errUploadTimedOut
	}
	return false, nil
}

func init() {
	uploadCmd.Flags().String("session", "", "Existing session ID the cookies belong to")
	uploadCmd.Flags().Bool("quiet", false, "Do not print the session log")
	rootCmd.AddCommand(uploadCmd)
}
