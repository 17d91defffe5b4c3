// Package app wires application dependencies for the relay and client CLIs.
//
// It loads the configuration, applies command line overrides and builds the
// log backend, the shared codec, the metrics registry and the relay or client
// on top of them, exposing everything via the Wire struct for commands to use.
package app
