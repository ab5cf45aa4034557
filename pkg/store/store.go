package store

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"mpkv/pkg/clock"
)

// Store is a handle on one open data directory. It is safe for concurrent
// use: reads run in parallel, mutations serialize, and every mutation is
// fsynced before it returns.
type Store struct {
	dir    string
	opts   Options
	logger *slog.Logger

	flk *flock.Flock
	seq *clock.AtomicClock

	// writeMu serializes mutations: Put, Delete, Compact, Backup, Close.
	writeMu sync.Mutex

	// stateMu guards the swappable handle state below. Readers hold it
	// shared for their whole read so the compaction swap and Close cannot
	// pull the file or index out from under them.
	stateMu sync.RWMutex
	log     *appendLog
	idx     *keydir
	recs    int // records physically in the log, live or shadowed
	closed  bool
}

// Open opens or creates the store rooted at dir, replays the log to
// rebuild the index, and returns a ready handle. It fails with ErrLocked
// when another process holds the directory, with ErrCorruption when
// strict-mode replay hits an invalid record, and with ErrIO when the disk
// misbehaves.
func Open(dir string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create data dir %s: %v", ErrIO, dir, err)
	}

	flk, err := acquireDirLock(dir)
	if err != nil {
		return nil, err
	}
	// Safe only with the lock held: a live store may have a temp file in
	// flight.
	removeStaleTemps(dir, opts.Logger)

	l, err := openAppendLog(filepath.Join(dir, logFileName))
	if err != nil {
		flk.Unlock()
		return nil, err
	}

	idx := newKeydir()
	maxSeq, recs, err := l.replay(idx, opts.Strict, opts.Logger)
	if err != nil {
		l.f.Close()
		flk.Unlock()
		return nil, err
	}
	if err := l.beginAppends(); err != nil {
		l.f.Close()
		flk.Unlock()
		return nil, err
	}

	s := &Store{
		dir:    dir,
		opts:   opts,
		logger: opts.Logger,
		flk:    flk,
		seq:    clock.NewAtomic(maxSeq),
		log:    l,
		idx:    idx,
		recs:   recs,
	}
	s.logger.Debug("store opened",
		"dir", dir, "records", recs, "live_keys", idx.len(), "size_bytes", l.size)
	return s, nil
}

// removeStaleTemps clears compaction/restore temp files a crashed run left
// behind. The canonical log never matches the pattern.
func removeStaleTemps(dir string, logger *slog.Logger) {
	stale, err := filepath.Glob(filepath.Join(dir, tempPattern))
	if err != nil {
		return
	}
	for _, path := range stale {
		if err := os.Remove(path); err == nil {
			logger.Warn("removed stale temp file", "path", path)
		}
	}
}

// Put stores value under key and returns the assigned sequence number. It
// overwrites any prior value; the shadowed record stays in the log until
// Compact. The write is flushed and fsynced before Put returns.
func (s *Store) Put(key string, value []byte) (uint64, error) {
	if err := s.validateKey(key); err != nil {
		return 0, err
	}
	if err := validateValue(key, value); err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	seq := s.seq.Next()
	rec := record{seq: seq, key: key, value: value}
	off, err := s.log.append(rec)
	if err != nil {
		return 0, err
	}

	s.stateMu.Lock()
	s.idx.put(key, entry{off: off, size: int64(rec.frameSize()), seq: seq}, uint64(off))
	s.recs++
	s.stateMu.Unlock()
	return seq, nil
}

// Get returns the latest value for key, or ErrNotFound when the key is
// absent or was last deleted. The record checksum is re-verified on read.
func (s *Store) Get(key string) ([]byte, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	ent, ok := s.idx.get(key)
	if !ok {
		return nil, ErrNotFound
	}
	rec, err := s.log.readAt(ent.off, ent.size)
	if err != nil {
		return nil, err
	}
	return rec.value, nil
}

// Delete removes key, reporting whether it existed. Deleting an absent key
// is a no-op that returns false: nothing is appended. For a live key a
// tombstone is appended and fsynced before the index entry goes away.
func (s *Store) Delete(key string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	if _, live := s.idx.get(key); !live {
		return false, nil
	}

	rec := record{seq: s.seq.Next(), key: key, tombstone: true}
	if _, err := s.log.append(rec); err != nil {
		return false, err
	}

	s.stateMu.Lock()
	s.idx.delete(key)
	s.recs++
	s.stateMu.Unlock()
	return true, nil
}

// Keys returns a lazy sequence over a snapshot of the live keys, in
// insertion order: oldest surviving key first, overwrites keep their
// position, delete followed by re-put moves a key to the end. The snapshot
// is taken when Keys is called; the sequence never observes later writes.
func (s *Store) Keys() (iter.Seq[string], error) {
	s.stateMu.RLock()
	if s.closed {
		s.stateMu.RUnlock()
		return nil, ErrClosed
	}
	keys := s.idx.keysByRank()
	s.stateMu.RUnlock()

	return func(yield func(string) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}, nil
}

// Backup streams a point-in-time copy of the raw log to w and returns the
// byte count. Mutations are excluded for the duration; reads are not.
func (s *Store) Backup(w io.Writer) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	n, err := io.Copy(w, io.NewSectionReader(s.log.f, 0, s.log.size))
	if err != nil {
		return n, fmt.Errorf("%w: backup copy: %v", ErrIO, err)
	}
	return n, nil
}

// Close flushes and releases the log file and the directory lock. Every
// operation on a closed store, Close included, fails with ErrClosed.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.stateMu.Lock()
	s.closed = true
	s.stateMu.Unlock()

	err := s.log.close()
	if uerr := s.flk.Unlock(); uerr != nil && err == nil {
		err = fmt.Errorf("%w: release lock: %v", ErrIO, uerr)
	}
	s.logger.Debug("store closed", "dir", s.dir)
	return err
}

func (s *Store) validateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if len(key) > s.opts.MaxKeyBytes {
		return fmt.Errorf("%w: key is %d bytes, limit is %d", ErrInvalidKey, len(key), s.opts.MaxKeyBytes)
	}
	return nil
}

// validateValue rejects records over the frame cap. Every acknowledged
// write must stay replayable.
func validateValue(key string, value []byte) error {
	frameLen := int64(recordOverhead-lenPrefixSize) + int64(len(key)) + int64(len(value))
	if frameLen > maxFrameLen {
		return fmt.Errorf("%w: frame of %d bytes, limit is %d", ErrValueTooLarge, frameLen, int64(maxFrameLen))
	}
	return nil
}
