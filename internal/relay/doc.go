// Package relay implements the two-party encrypted relay.
//
// A Pairer accepts connections and holds at most one of them pending. When a
// second arrives the two are removed together and handed to a Session, and
// the pending slot is free again. Connections arriving while every session
// slot is occupied are sent a short plain-text notice and closed; there is no
// waiting list.
//
// A Session runs two pipelines, A to B and B to A. Each pipeline reads one
// frame, opens it with the shared codec, seals the plaintext again under a
// fresh nonce and writes it to the opposite connection. The relay is
// therefore a trusted intermediary: it sees every plaintext. Frames too short
// to carry a nonce and frames that fail authentication are logged and
// dropped; the pipeline keeps going. A peer closing its connection or a write
// failing ends the pipeline, and the end of either pipeline closes both
// connections.
//
// Frames are not length prefixed, so every read is taken to be exactly one
// frame. See package wire.
package relay
