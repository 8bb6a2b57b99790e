// Package key implements the two storage key codecs mapping block
// coordinates to signed 64-bit keys, and the tagged SpatialKey wrapper that
// makes the active scheme explicit.
//
// # Schemes
//
// Scheme3 is the legacy codec. It packs each axis into a 12-bit field
// (Z<<24 + Y<<12 + X) and relies on a fixed bias added during decode to
// shift all axes non-negative before the fields are masked apart. Only
// positions with every axis in [MinAxis3, MaxAxis3] round-trip; Encode3
// rejects anything outside that domain.
//
// Scheme4 is the extended codec. Each of the four axes, phase included,
// occupies its own full 16-bit lane (Phase<<48 | Z<<32 | Y<<16 | X) as a
// two's-complement bit pattern, so every coord.Pos4 round-trips with no
// bias arithmetic and no domain restriction.
//
// # Scheme Non-Interchangeability
//
// The two codecs share the int64 representation space but not the key
// space: decoding a Scheme3 key with Decode4 (or the reverse) yields a
// structurally valid position with no meaning. Nothing in the raw value
// identifies its scheme, so callers must track which codec produced a key.
// SpatialKey carries that tag in the type; the store package tracks it per
// database in a metadata record.
//
// All functions are pure and safe for concurrent use.
package key
