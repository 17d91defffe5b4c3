package domain

import "fmt"

const (
	// KeySize is the length of the relay's shared AEAD key.
	KeySize = 32
	// NonceSize is the length of the per-message nonce leading every frame.
	NonceSize = 12
)

// SymmetricKey is the process-wide AEAD key. It is provided once at startup
// and only ever read afterwards.
type SymmetricKey [KeySize]byte

func (k SymmetricKey) Slice() []byte { return k[:] }

// Nonce is the per-message AEAD nonce.
type Nonce [NonceSize]byte

func (n Nonce) Slice() []byte { return n[:] }

func MustSymmetricKey(b []byte) SymmetricKey {
	if len(b) != KeySize {
		panic(fmt.Errorf("symmetric key: want %d bytes, got %d", KeySize, len(b)))
	}
	var out SymmetricKey
	copy(out[:], b)
	return out
}

func MustNonce(b []byte) Nonce {
	if len(b) != NonceSize {
		panic(fmt.Errorf("nonce: want %d bytes, got %d", NonceSize, len(b)))
	}
	var out Nonce
	copy(out[:], b)
	return out
}
