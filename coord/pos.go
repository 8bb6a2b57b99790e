package coord

import "fmt"

// Pos3 is a block position on the legacy three-axis grid. Each axis is a
// signed block index; only values in [-2048, 2047] per axis have a unique
// legacy storage key (see the key package).
type Pos3 struct {
	X int16
	Y int16
	Z int16
}

// Lift embeds the position into the four-axis coordinate space with
// Phase = 0. This is the canonical embedding: legacy positions and their
// lifted counterparts always address the same block.
func (p Pos3) Lift() Pos4 {
	return Pos4{X: p.X, Y: p.Y, Z: p.Z}
}

// String returns the position in "(x,y,z)" form.
func (p Pos3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Pos4 is a block position on the extended grid: three spatial axes plus a
// Phase axis distinguishing parallel instances of the map. Each field is a
// full-range signed 16-bit quantity. The zero value addresses the origin
// block of phase 0.
//
// Pos4 is comparable; equality is structural over all four fields.
type Pos4 struct {
	X     int16
	Y     int16
	Z     int16
	Phase int16
}

// NewPos4 builds a position with the phase omitted, which fixes Phase = 0.
// NewPos4(x, y, z) is identical to Pos4{X: x, Y: y, Z: z, Phase: 0}.
func NewPos4(x, y, z int16) Pos4 {
	return Pos4{X: x, Y: y, Z: z}
}

// Pos3 truncates the position back to the legacy three-axis grid,
// dropping the phase.
func (p Pos4) Pos3() Pos3 {
	return Pos3{X: p.X, Y: p.Y, Z: p.Z}
}

// Hash returns the bucket-selection hash of the position.
//
// Each axis contributes its 16-bit two's-complement pattern to a disjoint
// lane of the result, combined with XOR:
//
//	X<<48 ^ Y<<32 ^ Z<<16 ^ Phase
//
// The lane order is intentionally the reverse of the storage key layout and
// the combination is XOR rather than addition, so the hash must never be
// used as, or compared against, a storage key.
func (p Pos4) Hash() uint64 {
	return uint64(uint16(p.X))<<48 ^
		uint64(uint16(p.Y))<<32 ^
		uint64(uint16(p.Z))<<16 ^
		uint64(uint16(p.Phase))
}

// String returns the position in "(x,y,z,phase)" form.
func (p Pos4) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", p.X, p.Y, p.Z, p.Phase)
}
