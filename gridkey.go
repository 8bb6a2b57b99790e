// Package gridkey provides bijective codecs between block-grid coordinates
// and signed 64-bit storage keys, a position hash for in-memory containers,
// and reference stores built on those keys.
//
// A block world addresses fixed-size chunks of its grid by integer
// coordinates. Two key schemes coexist:
//
//   - the legacy three-axis scheme packs X, Y, Z into 12-bit fields with a
//     decode-time bias, covering [-2048, 2047] per axis; it is kept so that
//     keys persisted before the phase axis existed stay decodable.
//   - the extended four-axis scheme gives X, Y, Z and a Phase selector one
//     full 16-bit lane each, covering the whole int16 range per axis.
//
// The two schemes occupy the same int64 space but are not interchangeable:
// a raw key is meaningless without knowing which codec produced it. The
// key.SpatialKey type carries that scheme tag explicitly, and the store
// package tracks it per database.
//
// # Basic Usage
//
// Encoding and decoding positions:
//
//	k := gridkey.Encode4(coord.Pos4{X: 100, Y: 50, Z: 25, Phase: 3})
//	pos := gridkey.Decode4(k)
//
// Persisting blocks:
//
//	s, _ := store.OpenBadger("/var/lib/world")
//	_ = s.Put(ctx, pos, payload)
//
// # Package Structure
//
// This package offers thin wrappers over the coord and key packages for
// the common path. Use those packages directly for the value types, the
// scheme-tagged SpatialKey, and the domain constants, and the store
// package for the storage engine boundary.
package gridkey

import (
	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/key"
)

// Encode3 packs a legacy three-axis position into its storage key.
// Axes outside [key.MinAxis3, key.MaxAxis3] are rejected.
func Encode3(p coord.Pos3) (key.Key, error) {
	return key.Encode3(p)
}

// Decode3 recovers a three-axis position from a legacy storage key.
func Decode3(k key.Key) coord.Pos3 {
	return key.Decode3(k)
}

// Encode4 packs a four-axis position into its storage key. It is total
// over all positions.
func Encode4(p coord.Pos4) key.Key {
	return key.Encode4(p)
}

// Decode4 recovers a four-axis position from an extended storage key.
func Decode4(k key.Key) coord.Pos4 {
	return key.Decode4(k)
}

// PosHash returns the in-memory bucket hash of a position. It is never a
// storage key; see coord.Pos4.Hash.
func PosHash(p coord.Pos4) uint64 {
	return p.Hash()
}
