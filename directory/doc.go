// Package directory is the typed HTTP client for the portal backend API.
//
// # Components
//
//   - [Client] — interface the engine consumes (lookup, login, password
//     update, change/recovery submission, presence, read-only surfaces).
//   - [HTTPClient] — JSON-over-HTTP implementation with decode-at-the-
//     boundary parsing: every response is unmarshalled into an explicit
//     schema and malformed bodies fail with [ErrSchema] instead of
//     propagating missing fields.
//
// # Architecture boundaries
//
// This package owns wire shapes and transport error mapping. It does NOT
// interpret business state (account status, trust, challenges) — that
// responsibility belongs to the engine.
package directory
