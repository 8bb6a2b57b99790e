// Package coord provides the block coordinate value types used throughout
// gridkey, plus an in-memory map keyed by them.
//
// Two positions exist side by side:
//
//   - Pos3 is the legacy three-axis block position (X, Y, Z).
//   - Pos4 extends it with a Phase axis selecting one of several parallel
//     instances of the map grid. Phase 0 means "no phase", so legacy data
//     keeps its meaning unchanged.
//
// Pos3.Lift is the canonical embedding of the legacy coordinate space into
// the extended one: it fixes Phase = 0. Pos4.Pos3 is the inverse
// truncation and simply drops the phase.
//
// # Hashing
//
// Pos4.Hash spreads each axis into its own 16-bit lane of a 64-bit word and
// combines the lanes with XOR. The result is intended purely for bucket
// selection in in-process containers (see Map); it is never persisted and
// is deliberately laid out differently from the storage key produced by the
// key package, so hash proximity does not correlate with key adjacency.
//
// # Thread Safety
//
// Pos3 and Pos4 are immutable value types and safe for concurrent use.
// Map is not synchronized; callers needing concurrency must wrap it with
// their own locking.
package coord
