package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CompactStats reports what a Compact pass accomplished.
type CompactStats struct {
	RecordsKept    int
	RecordsDropped int
	BytesBefore    int64
	BytesAfter     int64
}

// Compact rewrites the log keeping only the latest non-tombstoned record
// per key, in ascending sequence order. The survivors go to a temp file in
// the data directory which is fsynced and then atomically renamed over the
// canonical log, so a crash at any point leaves either the old log or the
// complete new one, never a partial file under the canonical path.
//
// Other mutations are excluded for the duration. Reads keep running
// against the pre-compaction file and index until the swap; the swap
// waits out in-flight reads, so no read ever spans the boundary.
func (s *Store) Compact() (CompactStats, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var stats CompactStats
	if s.closed {
		return stats, ErrClosed
	}

	live := s.idx.entriesBySeq()
	stats.BytesBefore = s.log.size
	stats.RecordsKept = len(live)
	stats.RecordsDropped = s.recs - len(live)

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return stats, fmt.Errorf("%w: create temp log: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		tmp.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	// Copy surviving records verbatim; checksums, sequence numbers and
	// payloads carry over byte for byte.
	w := bufio.NewWriter(tmp)
	newIdx := newKeydir()
	var off int64
	for _, ke := range live {
		frame := make([]byte, ke.ent.size)
		if _, err := s.log.f.ReadAt(frame, ke.ent.off); err != nil {
			return stats, fmt.Errorf("%w: read record at offset %d: %v", ErrIO, ke.ent.off, err)
		}
		if _, err := w.Write(frame); err != nil {
			return stats, fmt.Errorf("%w: write compacted record: %v", ErrIO, err)
		}
		newIdx.put(ke.key, entry{off: off, size: ke.ent.size, seq: ke.ent.seq}, uint64(off))
		off += ke.ent.size
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("%w: flush temp log: %v", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return stats, fmt.Errorf("%w: sync temp log: %v", ErrIO, err)
	}

	if err := os.Rename(tmpPath, s.log.path); err != nil {
		return stats, fmt.Errorf("%w: rename temp log over %s: %v", ErrIO, s.log.path, err)
	}
	renamed = true
	if err := syncDir(s.dir); err != nil {
		// The rename is complete; only its durability against power loss
		// is in doubt, and both the old and new log replay cleanly.
		s.logger.Warn("sync data dir after compaction rename", "error", err)
	}

	nl, err := openAppendLog(s.log.path)
	if err == nil {
		err = nl.beginAppends()
	}
	if err != nil {
		// The compacted log is good on disk but this handle lost its file.
		// The old descriptor points at the unlinked inode, so the store
		// cannot safely continue; fail closed.
		s.stateMu.Lock()
		s.closed = true
		s.stateMu.Unlock()
		s.log.f.Close()
		s.flk.Unlock()
		return stats, fmt.Errorf("%w: reopen compacted log: %v", ErrIO, err)
	}

	old := s.log
	s.stateMu.Lock()
	s.log = nl
	s.idx = newIdx
	s.recs = len(live)
	s.stateMu.Unlock()
	old.f.Close()

	stats.BytesAfter = off
	s.logger.Info("compaction complete",
		"records_kept", stats.RecordsKept,
		"records_dropped", stats.RecordsDropped,
		"bytes_before", stats.BytesBefore,
		"bytes_after", stats.BytesAfter,
	)
	return stats, nil
}

// Restore replaces the canonical log under dir with the contents of r,
// using the same temp-then-rename discipline as Compact. It takes the same
// advisory lock as Open, so it cannot race a live store; the caller opens
// the store afterwards, and replay validates the restored data.
func Restore(dir string, r io.Reader) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create data dir %s: %v", ErrIO, dir, err)
	}

	flk, err := acquireDirLock(dir)
	if err != nil {
		return err
	}
	defer flk.Unlock()

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("%w: create temp log: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		tmp.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("%w: write restored log: %v", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync restored log: %v", ErrIO, err)
	}

	logPath := filepath.Join(dir, logFileName)
	if err := os.Rename(tmpPath, logPath); err != nil {
		return fmt.Errorf("%w: rename restored log over %s: %v", ErrIO, logPath, err)
	}
	renamed = true
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("%w: sync data dir: %v", ErrIO, err)
	}
	return nil
}
