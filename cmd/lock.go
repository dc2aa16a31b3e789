package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ytleenf/ytclient/internal/config"
)

var (
	instanceLock *flock.Flock

	// lockPath locates the single-instance lock for the interactive client.
	lockPath = func() string {
		return filepath.Join(config.GetRuntimeDir(), "ytclient.lock")
	}
)

// fetchLockName is created inside a fetch destination while files are retrieved into it.
const fetchLockName = ".ytclient-fetch.lock"

// AcquireLock takes the interactive client lock. It returns false without an
// error when another instance already holds it.
func AcquireLock() (bool, error) {
	path := lockPath()
	if err := appFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return false, err
	}
	if !locked {
		return false, nil
	}
	instanceLock = fl
	return true, nil
}

// ReleaseLock releases the interactive client lock if it is held.
func ReleaseLock() error {
	if instanceLock == nil {
		return nil
	}
	err := instanceLock.Unlock()
	instanceLock = nil
	return err
}

// lockDir guards a fetch destination against a concurrent fetch into the
// same directory.
func lockDir(dir string) (*flock.Flock, error) {
	if err := appFs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(dir, fetchLockName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("another fetch into %s is in progress", dir)
	}
	return fl, nil
}
