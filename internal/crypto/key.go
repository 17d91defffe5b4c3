package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"ciphera/internal/domain"
	"ciphera/internal/util/memzero"
)

const SaltBytes = 16

var ErrKeySize = fmt.Errorf("crypto: key must be %d bytes", domain.KeySize)

// GenerateKey returns a fresh random relay key.
func GenerateKey() (domain.SymmetricKey, error) {
	var k domain.SymmetricKey
	if _, err := rand.Read(k[:]); err != nil {
		return k, err
	}
	return k, nil
}

// ParseKey decodes a hex encoded 32-byte key. Surrounding whitespace is
// ignored so key files may end in a newline.
func ParseKey(s string) (domain.SymmetricKey, error) {
	var k domain.SymmetricKey
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return k, fmt.Errorf("crypto: decoding key: %w", err)
	}
	defer memzero.Zero(b)
	if len(b) != domain.KeySize {
		return k, ErrKeySize
	}
	copy(k[:], b)
	return k, nil
}

// EncodeKey returns the hex form understood by ParseKey.
func EncodeKey(k domain.SymmetricKey) string {
	return hex.EncodeToString(k[:])
}

// DeriveKey stretches a shared passphrase into a relay key with Argon2id.
// Both ends must use the same salt.
func DeriveKey(passphrase string, salt []byte) (domain.SymmetricKey, error) {
	var k domain.SymmetricKey
	if passphrase == "" {
		return k, errors.New("crypto: empty passphrase")
	}
	if len(salt) != SaltBytes {
		return k, errors.New("crypto: invalid salt size")
	}
	kek := argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, domain.KeySize)
	defer memzero.Zero(kek)
	copy(k[:], kek)
	return k, nil
}
