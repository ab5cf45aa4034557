package store

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "LOCK"

// acquireDirLock takes the advisory lock enforcing one live store (or
// restore) per data directory across processes. The lock lives in its own
// file rather than on the log: compaction renames a fresh file over the
// log path, and a lock held on the old inode would quietly stop excluding
// anyone.
func acquireDirLock(dir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dir, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", ErrIO, fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is held by another process", ErrLocked, fl.Path())
	}
	return fl, nil
}
