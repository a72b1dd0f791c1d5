// Package cli provides the interactive Flock command-line client.
//
// It wires configuration, the encrypted credential store, the API gateway
// and the client state containers (session, cart, live) into a REPL. A
// background coordinator keeps the cart and live session in step with the
// signed-in identity, and a connectivity watcher shows whether the backend is
// reachable in the prompt.
//
// Key features:
//   - Register / Verify / Login / Logout, password reset and change
//   - Browse products and events
//   - Cart: add, change quantity, remove, checkout through the payment page
//   - Live TV: program status, comments, posting, watch mode with polling
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
