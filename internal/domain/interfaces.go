package domain

// Codec seals and opens single chat messages under the shared key.
//
// Implementations must be safe for concurrent use: every relay pipeline
// shares one Codec.
type Codec interface {
	// Encrypt seals plaintext under a freshly generated nonce. The returned
	// ciphertext carries the authentication tag.
	Encrypt(plaintext []byte) (ciphertext []byte, nonce Nonce, err error)
	// Decrypt opens ciphertext sealed under nonce.
	Decrypt(ciphertext []byte, nonce Nonce) ([]byte, error)
}
