package persistence

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Checksum returns the hex encoded BLAKE2b-256 digest of payload.
func Checksum(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports ErrCorrupt when payload does not hash to expected.
// An empty expected value is accepted so snapshots written before checksums
// existed remain readable.
func VerifyChecksum(payload []byte, expected string) error {
	if expected == "" {
		return nil
	}
	if got := Checksum(payload); got != expected {
		return fmt.Errorf("%w: checksum mismatch (want %s, got %s)", ErrCorrupt, expected, got)
	}
	return nil
}
