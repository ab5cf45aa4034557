package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// replay scans the log from offset 0 and rebuilds the keydir,
// last-writer-wins. Each record must pass its checksum, keep its lengths
// consistent, and carry a sequence number strictly greater than the
// previous record's. The first record that fails any of those checks ends
// the scan: in strict mode with ErrCorruption, otherwise by truncating the
// file at the last valid offset (a torn final append is the expected way
// a crashed process leaves the log behind).
//
// It returns the highest sequence number seen and the number of records
// that remain in the file.
func (l *appendLog) replay(idx *keydir, strict bool, logger *slog.Logger) (maxSeq uint64, records int, err error) {
	r := bufio.NewReader(io.NewSectionReader(l.f, 0, l.size))

	var off int64
	for {
		var lenBuf [lenPrefixSize]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break // clean end at a record boundary
			}
			return l.stopReplay(off, "torn length prefix", strict, logger, maxSeq, records)
		}

		frameLen := binary.LittleEndian.Uint32(lenBuf[:])
		if frameLen < minFrameLen || frameLen > maxFrameLen {
			return l.stopReplay(off, fmt.Sprintf("implausible frame length %d", frameLen), strict, logger, maxSeq, records)
		}

		frame := make([]byte, lenPrefixSize+int(frameLen))
		copy(frame, lenBuf[:])
		if _, err := io.ReadFull(r, frame[lenPrefixSize:]); err != nil {
			return l.stopReplay(off, "torn record body", strict, logger, maxSeq, records)
		}

		rec, err := decodeRecord(frame)
		if err != nil {
			return l.stopReplay(off, err.Error(), strict, logger, maxSeq, records)
		}
		if rec.seq <= maxSeq {
			return l.stopReplay(off, fmt.Sprintf("sequence number %d not above %d", rec.seq, maxSeq), strict, logger, maxSeq, records)
		}

		size := int64(len(frame))
		if rec.tombstone {
			idx.delete(rec.key)
		} else {
			idx.put(rec.key, entry{off: off, size: size, seq: rec.seq}, uint64(off))
		}
		maxSeq = rec.seq
		records++
		off += size
	}

	return maxSeq, records, nil
}

// stopReplay handles the first invalid record. Strict mode surfaces it;
// recovering mode cuts the file back to the last valid offset and keeps
// what was read so far.
func (l *appendLog) stopReplay(validOff int64, reason string, strict bool, logger *slog.Logger, maxSeq uint64, records int) (uint64, int, error) {
	if strict {
		return 0, 0, fmt.Errorf("%w: %s at offset %d", ErrCorruption, reason, validOff)
	}

	logger.Warn("log replay hit an invalid record; truncating at last valid offset",
		"offset", validOff,
		"dropped_bytes", l.size-validOff,
		"reason", reason,
	)
	if err := l.f.Truncate(validOff); err != nil {
		return 0, 0, fmt.Errorf("%w: truncate log at %d: %v", ErrIO, validOff, err)
	}
	if err := l.f.Sync(); err != nil {
		return 0, 0, fmt.Errorf("%w: sync truncated log: %v", ErrIO, err)
	}
	l.size = validOff
	return maxSeq, records, nil
}
