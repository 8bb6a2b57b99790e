package key

import (
	"fmt"

	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/errs"
)

// Key is a storage key: a signed 64-bit integer addressing one block record
// in a persisted store. Keys are produced exclusively by Encode3 and
// Encode4 and are opaque to the storage engine.
type Key int64

// Legacy three-axis domain. Each axis occupies a 12-bit field, so only
// values in [MinAxis3, MaxAxis3] have a unique, round-trippable encoding.
const (
	MinAxis3 = -2048
	MaxAxis3 = 2047
)

const (
	// bias3 shifts all three axes non-negative at once during decode:
	// 0x800 per 12-bit field, replicated at bit offsets 0, 12 and 24.
	bias3 = 0x800800800

	axisMask3 = 0xFFF
	axisBias3 = 0x800

	laneMask4 = 0xFFFF
)

// Encode3 packs a legacy three-axis position into a storage key as
// Z<<24 + Y<<12 + X. The axes are summed after shifting rather than masked
// into fields; that is only valid because Decode3 re-biases the whole key
// before extracting them, which in turn is only valid inside the declared
// domain. Any axis outside [MinAxis3, MaxAxis3] is rejected with an error
// wrapping errs.ErrAxisOutOfRange.
//
// The origin maps to key 0, which legacy databases rely on.
func Encode3(p coord.Pos3) (Key, error) {
	if err := checkAxis3("X", p.X); err != nil {
		return 0, err
	}
	if err := checkAxis3("Y", p.Y); err != nil {
		return 0, err
	}
	if err := checkAxis3("Z", p.Z); err != nil {
		return 0, err
	}

	return Key(int64(p.Z)<<24 + int64(p.Y)<<12 + int64(p.X)), nil
}

// Decode3 recovers the three-axis position from a legacy storage key.
//
// Adding bias3 shifts every axis into the non-negative range, after which
// each 12-bit field can be masked out independently and re-centered by
// subtracting 0x800. Decode3 is total, but only keys produced by Encode3
// decode to a meaningful position.
func Decode3(k Key) coord.Pos3 {
	i := int64(k) + bias3

	return coord.Pos3{
		X: int16(i&axisMask3) - axisBias3,
		Y: int16((i>>12)&axisMask3) - axisBias3,
		Z: int16((i>>24)&axisMask3) - axisBias3,
	}
}

// Encode4 packs a four-axis position into a storage key with one full
// 16-bit lane per axis: Phase<<48 | Z<<32 | Y<<16 | X. Each axis is taken
// as its two's-complement bit pattern, so no bias is needed and the whole
// int16 range of every axis round-trips. Encode4 is total.
func Encode4(p coord.Pos4) Key {
	x := uint64(uint16(p.X))
	y := uint64(uint16(p.Y))
	z := uint64(uint16(p.Z))
	ph := uint64(uint16(p.Phase))

	return Key(int64(ph<<48 | z<<32 | y<<16 | x))
}

// Decode4 recovers the four-axis position from an extended storage key by
// masking each 16-bit lane and reinterpreting it as a signed value.
// Decode4 is total and is the exact inverse of Encode4.
func Decode4(k Key) coord.Pos4 {
	u := uint64(k)

	return coord.Pos4{
		X:     int16(uint16(u & laneMask4)),
		Y:     int16(uint16((u >> 16) & laneMask4)),
		Z:     int16(uint16((u >> 32) & laneMask4)),
		Phase: int16(uint16((u >> 48) & laneMask4)),
	}
}

func checkAxis3(axis string, v int16) error {
	if v < MinAxis3 || v > MaxAxis3 {
		return fmt.Errorf("axis %s value %d outside [%d, %d]: %w",
			axis, v, MinAxis3, MaxAxis3, errs.ErrAxisOutOfRange)
	}

	return nil
}
