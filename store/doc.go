// Package store implements the storage engine boundary that consumes the
// gridkey codecs: durable and in-memory key→payload stores for block
// records addressed by coord.Pos4.
//
// The durable implementation, BadgerStore, persists each block under its
// encoded storage key in a Badger database. Which codec is in force is
// tracked per database in a metadata record, never inferred from raw keys:
// a database opened with existing rows but no metadata is treated as a
// legacy Scheme3 store (the Go analog of a schema without the phase
// column), and MigrateLegacy rewrites it under Scheme4 keys.
//
// Payloads are opaque byte slices. The store adds only an xxHash64
// integrity digest in front of each payload and verifies it on read; it
// performs no compression and no interpretation of the payload bytes.
//
// MemoryStore keeps blocks in a coord.Map guarded by a mutex. It is meant
// for tests and for running without a data directory.
package store
