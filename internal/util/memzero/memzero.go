package memzero

import "crypto/subtle"

// Zero overwrites b with zeros in a constant-time friendly way. It is used on
// decoded key material and on plaintext once it has been re-sealed.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}
