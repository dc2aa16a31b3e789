package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"

	"github.com/ytleenf/ytclient/internal/core"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

// ValidateUploadFile checks the cookie file preconditions and reads it.
// Size is checked before the content is read.
func ValidateUploadFile(fs afero.Fs, path string) (core.UploadFile, error) {
	if !strings.EqualFold(filepath.Ext(path), ".txt") {
		return core.UploadFile{}, ErrNotPlainText
	}

	info, err := fs.Stat(path)
	if err != nil {
		return core.UploadFile{}, fmt.Errorf("open cookie file: %w", err)
	}
	if info.IsDir() {
		return core.UploadFile{}, ErrNotPlainText
	}
	if err := checkSize(info.Size()); err != nil {
		return core.UploadFile{}, err
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return core.UploadFile{}, fmt.Errorf("read cookie file: %w", err)
	}
	// The file may have changed since Stat
	if err := checkSize(int64(len(data))); err != nil {
		return core.UploadFile{}, err
	}
	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		return core.UploadFile{}, fmt.Errorf("%w: looks like %s", ErrNotPlainText, kind.MIME.Value)
	}
	if !utf8.Valid(data) {
		return core.UploadFile{}, ErrNotPlainText
	}

	return core.UploadFile{Name: filepath.Base(path), Data: data}, nil
}

func checkSize(n int64) error {
	switch {
	case n <= 0:
		return ErrFileEmpty
	case n > types.MaxCookieFileSize:
		return ErrFileTooLarge
	}
	return nil
}
