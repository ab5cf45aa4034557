package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const logFileName = "mpkv.log"

// tempPattern names transient compaction/restore files. Open removes any
// leftovers, so the pattern must not match the canonical log.
const tempPattern = "mpkv-*.log.tmp"

const (
	lenPrefixSize = 4
	seqSize       = 8
	keyLenSize    = 4
	valLenSize    = 4
	crcSize       = 4

	// recordOverhead is the framed size of a record with empty key and value.
	recordOverhead = lenPrefixSize + seqSize + keyLenSize + valLenSize + crcSize

	// minFrameLen is the smallest valid frame length (one-byte key, tombstone).
	minFrameLen = recordOverhead - lenPrefixSize + 1

	// maxFrameLen caps a single frame. A torn or bit-flipped length prefix
	// must not demand an absurd allocation before the checksum can reject it.
	maxFrameLen = 1 << 30
)

// tombstoneMarker is the value-length field of a delete record.
const tombstoneMarker = int32(-1)

// record is one log entry: a put, or a tombstone shadowing earlier puts.
type record struct {
	seq       uint64
	key       string
	value     []byte
	tombstone bool
}

// frameSize returns the full on-disk size of the record, prefix and
// checksum included.
func (r record) frameSize() int {
	n := recordOverhead + len(r.key)
	if !r.tombstone {
		n += len(r.value)
	}
	return n
}

// encodeRecord appends the framed record to buf and returns the result.
func encodeRecord(buf []byte, r record) []byte {
	start := len(buf)
	frameLen := uint32(r.frameSize() - lenPrefixSize)

	valLen := tombstoneMarker
	if !r.tombstone {
		valLen = int32(len(r.value))
	}

	buf = binary.LittleEndian.AppendUint32(buf, frameLen)
	buf = binary.LittleEndian.AppendUint64(buf, r.seq)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.key)))
	buf = append(buf, r.key...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(valLen))
	if !r.tombstone {
		buf = append(buf, r.value...)
	}

	crc := crc32.ChecksumIEEE(buf[start:])
	return binary.LittleEndian.AppendUint32(buf, crc)
}

// decodeRecord parses one complete frame (length prefix included) and
// verifies its checksum and internal consistency. Failures come back as
// bare reasons; callers attach ErrCorruption and the offset.
func decodeRecord(frame []byte) (record, error) {
	var rec record
	if len(frame) < recordOverhead+1 {
		return rec, fmt.Errorf("frame of %d bytes is too short", len(frame))
	}

	body := frame[:len(frame)-crcSize]
	want := binary.LittleEndian.Uint32(frame[len(frame)-crcSize:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return rec, fmt.Errorf("checksum mismatch (got %08x, want %08x)", got, want)
	}

	off := lenPrefixSize
	rec.seq = binary.LittleEndian.Uint64(frame[off:])
	off += seqSize

	keyLen := int(binary.LittleEndian.Uint32(frame[off:]))
	off += keyLenSize
	if keyLen == 0 || off+keyLen+valLenSize+crcSize > len(frame) {
		return rec, fmt.Errorf("key length %d inconsistent with %d-byte frame", keyLen, len(frame))
	}
	rec.key = string(frame[off : off+keyLen])
	off += keyLen

	valLen := int32(binary.LittleEndian.Uint32(frame[off:]))
	off += valLenSize
	if valLen == tombstoneMarker {
		rec.tombstone = true
		if off+crcSize != len(frame) {
			return rec, fmt.Errorf("tombstone frame carries trailing bytes")
		}
		return rec, nil
	}
	if valLen < 0 || off+int(valLen)+crcSize != len(frame) {
		return rec, fmt.Errorf("value length %d inconsistent with %d-byte frame", valLen, len(frame))
	}
	rec.value = append([]byte(nil), frame[off:off+int(valLen)]...)
	return rec, nil
}

// appendLog owns the canonical log file: buffered, fsynced appends at the
// tail and positional reads anywhere. Appends go through a single writer;
// reads use ReadAt and never share a file position with it.
type appendLog struct {
	f    *os.File
	w    *bufio.Writer
	path string
	size int64

	// torn is set when a failed append could not be truncated away. The
	// tail is no longer at a record boundary, so further appends would
	// write records that replay can never reach.
	torn bool
}

// openAppendLog opens or creates the log file. The append writer is not
// ready until beginAppends runs (replay may shorten the file first).
func openAppendLog(path string) (*appendLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open log %s: %v", ErrIO, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat log %s: %v", ErrIO, path, err)
	}
	return &appendLog{f: f, path: path, size: info.Size()}, nil
}

// beginAppends positions the file at the (possibly truncated) tail and
// arms the buffered writer.
func (l *appendLog) beginAppends() error {
	if _, err := l.f.Seek(l.size, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek log tail: %v", ErrIO, err)
	}
	l.w = bufio.NewWriter(l.f)
	return nil
}

// append writes one record and does not return until it is flushed and
// fsynced. On failure the partial tail is cut back to the last record
// boundary and the in-memory state stays as it was.
func (l *appendLog) append(rec record) (int64, error) {
	if l.torn {
		return 0, fmt.Errorf("%w: log tail torn by an earlier write failure", ErrIO)
	}

	off := l.size
	frame := encodeRecord(make([]byte, 0, rec.frameSize()), rec)

	if _, err := l.w.Write(frame); err != nil {
		return 0, l.failAppend(off, err)
	}
	if err := l.w.Flush(); err != nil {
		return 0, l.failAppend(off, err)
	}
	if err := l.f.Sync(); err != nil {
		return 0, l.failAppend(off, err)
	}

	l.size = off + int64(len(frame))
	return off, nil
}

// failAppend discards buffered bytes and truncates whatever part of the
// frame reached the file, so the next append starts at a record boundary.
func (l *appendLog) failAppend(off int64, cause error) error {
	l.w.Reset(l.f)
	if err := l.f.Truncate(off); err != nil {
		l.torn = true
		return fmt.Errorf("%w: append record: %v (tail truncation also failed: %v)", ErrIO, cause, err)
	}
	if _, err := l.f.Seek(off, io.SeekStart); err != nil {
		l.torn = true
		return fmt.Errorf("%w: append record: %v (reseek after truncation failed: %v)", ErrIO, cause, err)
	}
	return fmt.Errorf("%w: append record: %v", ErrIO, cause)
}

// readAt fetches the record occupying [off, off+size) and re-verifies its
// checksum, catching bit rot that crept in since replay.
func (l *appendLog) readAt(off, size int64) (record, error) {
	frame := make([]byte, size)
	if _, err := l.f.ReadAt(frame, off); err != nil {
		return record{}, fmt.Errorf("%w: read record at offset %d: %v", ErrIO, off, err)
	}
	rec, err := decodeRecord(frame)
	if err != nil {
		return record{}, fmt.Errorf("%w: %v (offset %d)", ErrCorruption, err, off)
	}
	return rec, nil
}

// close flushes, fsyncs and releases the file.
func (l *appendLog) close() error {
	if l.w != nil {
		if err := l.w.Flush(); err != nil {
			l.f.Close()
			return fmt.Errorf("%w: flush log: %v", ErrIO, err)
		}
	}
	if err := l.f.Sync(); err != nil {
		l.f.Close()
		return fmt.Errorf("%w: sync log: %v", ErrIO, err)
	}
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("%w: close log: %v", ErrIO, err)
	}
	return nil
}

// syncDir flushes directory metadata so a completed rename survives power
// loss.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
