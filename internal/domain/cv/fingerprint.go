package cv

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint is the content hash used for version file hashes and HTTP ETags.
func Fingerprint(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
