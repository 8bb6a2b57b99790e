package key

import (
	"fmt"

	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/errs"
)

// Scheme identifies which codec produced a storage key.
type Scheme uint8

const (
	// Scheme3 is the legacy biased 12-bit-per-axis codec.
	Scheme3 Scheme = 1
	// Scheme4 is the extended 16-bit-lane codec carrying a phase axis.
	Scheme4 Scheme = 2
)

// IsValid reports whether s names a known scheme.
func (s Scheme) IsValid() bool {
	return s == Scheme3 || s == Scheme4
}

func (s Scheme) String() string {
	switch s {
	case Scheme3:
		return "Scheme3"
	case Scheme4:
		return "Scheme4"
	default:
		return "Unknown"
	}
}

// SpatialKey pairs a raw storage key with the scheme that produced it, so
// the scheme travels in the type instead of in caller discipline. Use it
// wherever keys from both codecs can reach the same call site.
type SpatialKey struct {
	Scheme Scheme
	Raw    Key
}

// New3 encodes a legacy position into a Scheme3-tagged key. The position is
// subject to the Encode3 domain check.
func New3(p coord.Pos3) (SpatialKey, error) {
	k, err := Encode3(p)
	if err != nil {
		return SpatialKey{}, err
	}

	return SpatialKey{Scheme: Scheme3, Raw: k}, nil
}

// New4 encodes an extended position into a Scheme4-tagged key.
func New4(p coord.Pos4) SpatialKey {
	return SpatialKey{Scheme: Scheme4, Raw: Encode4(p)}
}

// Pos decodes the key with the codec named by its scheme tag. Scheme3 keys
// decode to their canonically embedded four-axis position (Phase = 0).
// An unknown scheme tag returns an error wrapping errs.ErrUnknownScheme.
func (k SpatialKey) Pos() (coord.Pos4, error) {
	switch k.Scheme {
	case Scheme3:
		return Decode3(k.Raw).Lift(), nil
	case Scheme4:
		return Decode4(k.Raw), nil
	default:
		return coord.Pos4{}, fmt.Errorf("scheme tag %d: %w", k.Scheme, errs.ErrUnknownScheme)
	}
}
