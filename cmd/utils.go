package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// readURLsFromFile reads URLs from a file, one per line.
// Blank lines and lines starting with # are skipped.
func readURLsFromFile(fs afero.Fs, path string) ([]string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	large := fileInfo.Size() > 10*1024*1024

	var urls []string
	scanner := bufio.NewScanner(file)

	// Long lines (default limit is 64KB)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	lineCount := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
		lineCount++

		if large && lineCount%10000 == 0 {
			fmt.Fprintf(os.Stderr, "\rReading batch file: %d URLs loaded...", len(urls))
		}
	}
	if large {
		fmt.Fprintf(os.Stderr, "\rReading batch file: %d URLs loaded... Done!\n", len(urls))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return urls, nil
}

// lockedWriter serializes writes from the bus goroutines and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
