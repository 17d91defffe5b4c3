// Package main runs the Ciphera pair relay.
//
// The relay listens on a single TCP address (127.0.0.1:8080 by default) and
// pairs the first two clients that connect. Every frame one client sends is
// decrypted with the shared key, re-encrypted under a fresh nonce and written
// to the other client. A third client is told "server full" and disconnected.
// When either client of a pair disconnects the pair is torn down and the slots
// become free for the next two clients.
//
// Usage
//
//	relay [-f relay.toml] [--addr host:port] [--key-file path]
//	      [--suite aes-256-gcm|chacha20-poly1305] [--log-level LEVEL]
//	      [--metrics host:port]
//
// The key may also be supplied hex encoded in the CIPHERA_KEY environment
// variable. SIGINT and SIGTERM close every session and exit.
package main
