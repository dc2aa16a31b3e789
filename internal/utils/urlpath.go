package utils

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ResolveURL resolves a retrieval reference from a file listing against the
// server base URL. Absolute references are returned unchanged.
// Example: ("http://host:8091/app", "/download_file/s1/a.mp4") -> http://host:8091/download_file/s1/a.mp4
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// JoinURLPath appends path elements to base, escaping each element.
func JoinURLPath(base string, elem ...string) (string, error) {
	escaped := make([]string, len(elem))
	for i, e := range elem {
		escaped[i] = url.PathEscape(e)
	}
	u, err := url.JoinPath(base, escaped...)
	if err != nil {
		return "", fmt.Errorf("join url path: %w", err)
	}
	return u, nil
}

// SanitizeFilename reduces a server supplied name to a safe base filename.
// Directory components are stripped; an empty result yields fallback.
func SanitizeFilename(name, fallback string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	switch name {
	case "", ".", "..", "/":
		return fallback
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "" {
		return fallback
	}
	return name
}
