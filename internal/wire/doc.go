// Package wire implements the relay's framing.
//
// A frame is the 12-byte nonce followed by the AEAD ciphertext (tag
// included):
//
//	[0..12)  nonce
//	[12..N)  ciphertext || tag
//
// There is no length prefix. ReceiveFrame performs a single Read and treats
// whatever arrives as one frame, which holds only while messages are short and
// each is written with a single Write. Frames that are fragmented or coalesced
// by the transport will fail authentication and be dropped by the reader.
package wire
