package wire

import (
	"io"

	"ciphera/internal/domain"
)

// Seal encrypts plaintext with c and returns the complete frame.
func Seal(c domain.Codec, plaintext []byte) ([]byte, error) {
	ct, nonce, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(nonce, ct), nil
}

// Open splits frame and decrypts it with c.
func Open(c domain.Codec, frame []byte) ([]byte, error) {
	nonce, ct, err := SplitFrame(frame)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(ct, nonce)
}

// WriteMessage seals plaintext with c and sends it to w as one frame.
func WriteMessage(w io.Writer, c domain.Codec, plaintext []byte) error {
	ct, nonce, err := c.Encrypt(plaintext)
	if err != nil {
		return err
	}
	return SendFrame(w, nonce, ct)
}
