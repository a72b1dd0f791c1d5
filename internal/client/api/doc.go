// Package api is the HTTP gateway to the community backend.
//
// # Overview
//
// Client wraps every outbound request with the configured base URL, a JSON
// body, a per-request X-Request-ID and, when a TokenSource yields one, an
// "Authorization: Bearer" header. Each backend endpoint has a typed method
// (auth, cart, store, live TV, events).
//
// # Error Handling
//
// Failures are classified so state containers can render them uniformly:
//
//   - *TransportError: the request never produced a response (dial, timeout,
//     cancellation). Matches ErrUnavailable.
//   - *APIError: the server answered non-2xx. Message carries the server's
//     "message" field when present. 401/403 match ErrUnauthorized.
//   - ErrMalformedResponse: a 2xx body that could not be decoded or lacks a
//     required field.
//   - *PreconditionError: a local guard failed and no request was sent.
//
// Message(err) turns any of these into the string shown to the user.
package api
