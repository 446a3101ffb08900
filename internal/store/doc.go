// Package store provides SQLite-backed storage for recorded skelpose runs.
//
// A run is one skeleton evaluated over a sequence of frames. For each frame
// the store keeps the frame input, the canonical snapshot it produced and
// the snapshot hash, so a later replay can re-evaluate the inputs and
// compare hashes.
//
// # Ordering
//
// Frames are keyed and ordered by their logical seq, never by wall time.
// Runs are listed by created_seq, then id.
//
// # Idempotency
//
// WriteRun and WriteFrame ignore rows that already exist, so writing the
// same run twice is harmless.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Frames must belong to a run
package store
