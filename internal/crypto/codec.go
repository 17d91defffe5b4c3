package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"ciphera/internal/domain"
)

// Suite names an AEAD construction usable by the relay. Every suite takes a
// 32-byte key and a 12-byte nonce.
type Suite string

const (
	SuiteAES256GCM        Suite = "aes-256-gcm"
	SuiteChaCha20Poly1305 Suite = "chacha20-poly1305"

	DefaultSuite = SuiteAES256GCM
)

var (
	// ErrAuthentication is returned when a ciphertext fails tag verification.
	ErrAuthentication = errors.New("crypto: message authentication failed")
	ErrUnknownSuite   = errors.New("crypto: unknown AEAD suite")
)

// ParseSuite maps a configured suite name to a Suite. The empty string selects
// DefaultSuite.
func ParseSuite(s string) (Suite, error) {
	switch Suite(s) {
	case "":
		return DefaultSuite, nil
	case SuiteAES256GCM, SuiteChaCha20Poly1305:
		return Suite(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSuite, s)
	}
}

// Codec is a domain.Codec backed by a single AEAD instance. It holds no
// mutable state and is shared by every session.
type Codec struct {
	suite Suite
	aead  cipher.AEAD
}

var _ domain.Codec = (*Codec)(nil)

// NewCodec builds a codec for key using suite.
func NewCodec(key domain.SymmetricKey, suite Suite) (*Codec, error) {
	var (
		aead cipher.AEAD
		err  error
	)
	switch suite {
	case SuiteAES256GCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key.Slice()); err != nil {
			return nil, err
		}
		aead, err = cipher.NewGCM(block)
	case SuiteChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key.Slice())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSuite, suite)
	}
	if err != nil {
		return nil, err
	}
	if aead.NonceSize() != domain.NonceSize {
		return nil, fmt.Errorf("crypto: %s nonce size %d, want %d", suite, aead.NonceSize(), domain.NonceSize)
	}
	return &Codec{suite: suite, aead: aead}, nil
}

// Suite reports the AEAD construction in use.
func (c *Codec) Suite() Suite { return c.suite }

// Overhead is the number of bytes the tag adds to every ciphertext.
func (c *Codec) Overhead() int { return c.aead.Overhead() }

// Encrypt seals plaintext under a fresh random nonce.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, domain.Nonce, error) {
	var nonce domain.Nonce
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, nonce, fmt.Errorf("crypto: generating nonce: %w", err)
	}
	return c.aead.Seal(nil, nonce[:], plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext sealed under nonce. Any tag mismatch, whether from
// tampering, corruption or a wrong key, is reported as ErrAuthentication.
func (c *Codec) Decrypt(ciphertext []byte, nonce domain.Nonce) ([]byte, error) {
	pt, err := c.aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return pt, nil
}
