package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"ciphera/internal/domain"
)

const fingerprintLabel = "ciphera key fingerprint v1"

// Fingerprint returns a short hex fingerprint of the shared key so two users
// can compare keys out of band without revealing them.
//
// It hashes a fixed label and the key with SHA-256 and truncates to 10 bytes
// (20 hex chars).
func Fingerprint(k domain.SymmetricKey) string {
	h := sha256.New()
	h.Write([]byte(fingerprintLabel))
	h.Write(k[:])
	return hex.EncodeToString(h.Sum(nil)[:10])
}
