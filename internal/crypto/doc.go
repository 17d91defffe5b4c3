// Package crypto exposes the minimal primitives used by the Ciphera relay.
//
// Contents
//
//   - An AEAD codec over AES-256-GCM or ChaCha20-Poly1305 that seals each
//     message under a fresh random 12-byte nonce (NewCodec, Codec)
//   - Relay key generation, parsing and passphrase derivation (GenerateKey,
//     ParseKey, DeriveKey)
//   - Short key fingerprints for out-of-band comparison (Fingerprint)
//
// # Notes
//
// Decrypt never panics. Every failure to open a ciphertext is reported as
// ErrAuthentication so callers can drop that one message and carry on.
package crypto
