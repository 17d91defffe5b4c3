// Package commands defines the ciphera CLI and wires dependencies for subcommands.
//
// Commands
//
//   - keygen        Generate a shared relay key and store it
//   - fingerprint   Print the fingerprint of the configured key
//   - chat          Connect to the relay and chat with the paired peer
//
// # Implementation
//
// The root command loads the configuration and applies flag overrides before
// any subcommand runs. Subcommands that need the key build the dependency
// graph (log backend, codec) from it through internal/app.
package commands
