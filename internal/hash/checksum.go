// Package hash provides the payload integrity digest used by the store
// package.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum computes the xxHash64 digest of a block payload. It is stored
// alongside the payload and verified on every read; it is not a
// cryptographic signature.
func Checksum(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}
