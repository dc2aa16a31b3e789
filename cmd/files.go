package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ytleenf/ytclient/internal/core"
	"github.com/ytleenf/ytclient/internal/engine/single"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

var filesCmd = &cobra.Command{
	Use:     "files",
	Aliases: []string{"ls"},
	Short:   "List or fetch the finished files of a session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		asJSON, _ := cmd.Flags().GetBool("json")
		fetchDir, _ := cmd.Flags().GetString("fetch")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		svc := newService()
		files, err := svc.Files(cmd.Context(), sessionID)
		if err != nil {
			return err
		}

		if fetchDir != "" {
			return fetchFiles(cmd.Context(), cmd.OutOrStdout(), svc, sessionID, fetchDir, files, overwrite)
		}
		return printFiles(cmd.OutOrStdout(), files, asJSON)
	},
}

func printFiles(w io.Writer, files []types.FileEntry, asJSON bool) error {
	if asJSON {
		if files == nil {
			files = []types.FileEntry{}
		}
		data, err := json.MarshalIndent(files, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if len(files) == 0 {
		_, err := fmt.Fprintln(w, "No files for this session.")
		return err
	}

	fmt.Fprintf(w, "%-48s %10s  %s\n", "NAME", "SIZE", "MODIFIED")
	fmt.Fprintln(w, strings.Repeat("-", 74))
	for _, f := range files {
		modified := "-"
		if f.Modified > 0 {
			modified = humanize.Time(time.Unix(int64(f.Modified), 0))
		}
		fmt.Fprintf(w, "%-48s %10s  %s\n", truncateName(f.Name, 48), humanize.IBytes(uint64(max(f.Size, 0))), modified)
	}
	return nil
}

// fetchFiles retrieves every listed file into dir, one at a time. Files
// already present with the served size are skipped unless overwrite is set.
func fetchFiles(ctx context.Context, w io.Writer, svc *core.RemoteService, sessionID, dir string, files []types.FileEntry, overwrite bool) error {
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, "No files to fetch.")
		return err
	}

	lock, err := lockDir(dir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	fetcher := single.NewFetcher(appFs, types.ConvertRuntimeConfig(settings.ToRuntimeConfig()))
	fetcher.Headers = map[string]string{
		types.SessionHeader:   sessionID,
		types.RequestIDHeader: uuid.NewString(),
	}

	var failed int
	for _, f := range files {
		rawurl, err := svc.ResolveFileURL(f.URL)
		if err != nil {
			fmt.Fprintf(w, "✖ %s: %v\n", f.Name, err)
			failed++
			continue
		}
		if !overwrite {
			if probe, err := fetcher.Probe(ctx, rawurl, f); err == nil && fetcher.AlreadyFetched(dir, probe) {
				fmt.Fprintf(w, "= %s (already fetched)\n", probe.Filename)
				continue
			}
		}
		path, err := fetcher.Fetch(ctx, rawurl, dir, f)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(w, "✖ %s: %v\n", f.Name, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "✔ %s (%s)\n", path, humanize.IBytes(uint64(max(f.Size, 0))))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be fetched", failed, len(files))
	}
	return nil
}

func truncateName(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	filesCmd.Flags().String("session", "", "Session ID whose files are listed")
	filesCmd.Flags().Bool("json", false, "Output in JSON format")
	filesCmd.Flags().String("fetch", "", "Download every listed file into this directory")
	filesCmd.Flags().Bool("overwrite", false, "Fetch files again even if they are already present")
	_ = filesCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(filesCmd)
}
