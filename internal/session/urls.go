package session

import (
	"strings"

	"github.com/samber/lo"
)

// RecognizedHosts are the host substrings a line must contain to be submitted.
var RecognizedHosts = []string{"youtube.com", "youtu.be"}

// ExtractURLs returns the trimmed, non-empty lines of raw that mention a
// recognized host, in input order. Duplicates are kept.
func ExtractURLs(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	return lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		if line == "" {
			return "", false
		}
		return line, lo.SomeBy(RecognizedHosts, func(host string) bool {
			return strings.Contains(line, host)
		})
	})
}
