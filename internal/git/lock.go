package git

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileName   = "stashy.lock"
	lockRetryDelay = 50 * time.Millisecond
)

// lock takes an exclusive lock on the repository's stash stack so that two
// stashy processes never run index-based mutations at the same time.
// The returned function releases it.
func (r *Repo) lock(ctx context.Context) (func(), error) {
	fileLock := flock.New(filepath.Join(r.GitDir, lockFileName))

	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stash: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock stash: %s is held", fileLock.Path())
	}

	return func() { _ = fileLock.Unlock() }, nil
}
