package wire

import (
	"errors"
	"fmt"
	"io"

	"ciphera/internal/domain"
)

// DefaultMaxFrameSize bounds a single ReceiveFrame read.
const DefaultMaxFrameSize = 1024

var (
	// ErrFrameTooShort is returned for frames that cannot hold a nonce.
	ErrFrameTooShort = fmt.Errorf("wire: frame shorter than %d-byte nonce", domain.NonceSize)
	// ErrPeerClosed signals an orderly close by the remote end. It is not a
	// failure.
	ErrPeerClosed = errors.New("wire: peer closed connection")
)

// EncodeFrame lays out nonce||ciphertext in a single buffer.
func EncodeFrame(nonce domain.Nonce, ciphertext []byte) []byte {
	buf := make([]byte, 0, domain.NonceSize+len(ciphertext))
	buf = append(buf, nonce[:]...)
	return append(buf, ciphertext...)
}

// SendFrame writes nonce||ciphertext to w as one logical write, retrying
// short writes until the frame is out or w fails.
func SendFrame(w io.Writer, nonce domain.Nonce, ciphertext []byte) error {
	buf := EncodeFrame(nonce, ciphertext)
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return fmt.Errorf("wire: sending frame: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("wire: sending frame: %w", io.ErrShortWrite)
		}
		buf = buf[n:]
	}
	return nil
}

// ReceiveFrame performs exactly one read of at most maxSize bytes from r and
// returns what arrived. A zero-length read or io.EOF yields ErrPeerClosed.
func ReceiveFrame(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	buf := make([]byte, maxSize)
	n, err := r.Read(buf)
	if n > 0 {
		// Data that arrived alongside an error is still a frame; the error
		// resurfaces on the next read.
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, ErrPeerClosed
	}
	return nil, fmt.Errorf("wire: receiving frame: %w", err)
}

// SplitFrame separates a received frame into its nonce and ciphertext. The
// ciphertext aliases buf.
func SplitFrame(buf []byte) (domain.Nonce, []byte, error) {
	var nonce domain.Nonce
	if len(buf) < domain.NonceSize {
		return nonce, nil, ErrFrameTooShort
	}
	copy(nonce[:], buf[:domain.NonceSize])
	return nonce, buf[domain.NonceSize:], nil
}
