package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/errs"
	"github.com/arloliu/gridkey/internal/hash"
)

// BlockStore is the contract between the coordinate codecs and a storage
// engine. Implementations persist an opaque payload per position and must
// guarantee that equal positions always resolve to the same record.
//
// Get returns an error wrapping errs.ErrBlockNotFound when no payload
// exists for the position. Delete of an absent position is not an error.
type BlockStore interface {
	// Put stores payload under pos, replacing any previous payload.
	Put(ctx context.Context, pos coord.Pos4, payload []byte) error

	// Get returns the payload stored under pos.
	Get(ctx context.Context, pos coord.Pos4) ([]byte, error)

	// Delete removes the payload stored under pos, if any.
	Delete(ctx context.Context, pos coord.Pos4) error

	// ForEach calls fn for every stored block. Returning an error from fn
	// stops the iteration and propagates the error.
	ForEach(ctx context.Context, fn func(pos coord.Pos4, payload []byte) error) error

	// Close releases the underlying resources. Operations after Close
	// return errs.ErrStoreClosed.
	Close() error
}

// checksumSize is the length of the xxHash64 digest prefixed to every
// stored value.
const checksumSize = 8

// packValue prefixes payload with its xxHash64 digest.
func packValue(payload []byte) []byte {
	value := make([]byte, checksumSize+len(payload))
	binary.BigEndian.PutUint64(value[:checksumSize], hash.Checksum(payload))
	copy(value[checksumSize:], payload)

	return value
}

// unpackValue verifies the digest and returns the payload portion of a
// stored value. The returned slice aliases value.
func unpackValue(value []byte) ([]byte, error) {
	if len(value) < checksumSize {
		return nil, fmt.Errorf("value length %d below checksum header: %w",
			len(value), errs.ErrCorruptValue)
	}

	payload := value[checksumSize:]
	want := binary.BigEndian.Uint64(value[:checksumSize])
	if got := hash.Checksum(payload); got != want {
		return nil, fmt.Errorf("stored digest %#016x, computed %#016x: %w",
			want, got, errs.ErrChecksumMismatch)
	}

	return payload, nil
}

// ctxErr reports a context already cancelled or past its deadline.
func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
