// Package domain defines the core data models and contracts shared across the
// relay and the chat client. It contains plain types (keys, nonces) and
// interfaces only.
package domain
