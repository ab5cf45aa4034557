// Package store implements the mpkv storage engine: a durable key-value
// map backed by a single append-only log plus an in-memory index that is
// rebuilt by replaying the log on open.
//
// Record format (little-endian):
//   - Frame length (4 bytes, bytes after this field)
//   - Sequence number (8 bytes)
//   - Key length (4 bytes)
//   - Key (variable)
//   - Value length (4 bytes, -1 for tombstone)
//   - Value (variable, absent for tombstone)
//   - CRC32 checksum over all preceding bytes (4 bytes)
//
// The log is the single source of truth. The index maps each live key to
// the offset of its latest record; tombstones shadow earlier writes until
// Compact rewrites the log without them. Every mutation is flushed and
// fsynced before it returns, so an acknowledged write survives a crash.
// A torn final record (the usual power-loss fallout) is detected by its
// checksum on the next open and truncated away unless strict mode is set.
//
// One live Store per data directory is enforced across processes with an
// advisory lock file; within a process the Store is safe for concurrent
// use by multiple goroutines, with reads proceeding in parallel and
// mutations serialized.
package store
