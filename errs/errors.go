// Package errs defines the sentinel errors shared across gridkey packages.
//
// All errors are plain sentinel values created with errors.New. Callers
// should match them with errors.Is, since packages wrap them with
// additional context using fmt.Errorf and the %w verb.
package errs

import "errors"

// Codec errors.
var (
	// ErrAxisOutOfRange is returned when a three-axis position has an axis
	// value outside the legacy 12-bit domain [-2048, 2047].
	ErrAxisOutOfRange = errors.New("axis value out of range")

	// ErrUnknownScheme is returned when a SpatialKey carries a scheme tag
	// that is neither Scheme3 nor Scheme4.
	ErrUnknownScheme = errors.New("unknown key scheme")
)

// Store errors.
var (
	// ErrPhaseUnsupported is returned when a position with a non-zero phase
	// is used against a store still keyed with the legacy three-axis scheme.
	ErrPhaseUnsupported = errors.New("phase not supported by legacy scheme")

	// ErrBlockNotFound is returned when no payload exists for the requested
	// position.
	ErrBlockNotFound = errors.New("block not found")

	// ErrChecksumMismatch is returned when a stored payload fails its
	// xxHash64 integrity check.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrCorruptValue is returned when a stored value is too short to carry
	// its checksum header.
	ErrCorruptValue = errors.New("corrupt stored value")

	// ErrStoreClosed is returned when an operation is attempted on a closed
	// store.
	ErrStoreClosed = errors.New("store is closed")
)
