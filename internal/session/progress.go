package session

import (
	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

// progressTracker holds the progress projection. Under last-write-wins every
// snapshot replaces the projection. Under the monotonic policy a numbered
// snapshot is dropped unless its seq is newer than the last applied one;
// unnumbered snapshots always apply.
type progressTracker struct {
	policy  string
	current types.Progress
	lastSeq int64
}

func newProgressTracker(policy string) progressTracker {
	if policy == "" {
		policy = config.PolicyLastWriteWins
	}
	return progressTracker{policy: policy, current: types.Progress{Status: types.StatusIdle}}
}

// apply reports whether p replaced the projection.
func (t *progressTracker) apply(p types.Progress) bool {
	if t.policy == config.PolicyMonotonic && p.Seq != 0 {
		if p.Seq <= t.lastSeq {
			return false
		}
		t.lastSeq = p.Seq
	}
	t.current = p
	return true
}

// newJob forgets sequence numbers so a fresh job may restart them.
func (t *progressTracker) newJob() {
	t.lastSeq = 0
}
