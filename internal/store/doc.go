// Package store provides file-based persistence for the relay's shared key.
//
// Keys are stored hex encoded, one per file, with owner-only permissions.
// Writes go to a temporary file in the same directory which then atomically
// replaces the target, so a crash never leaves a truncated key behind.
package store
