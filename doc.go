// Package goPortal provides the authentication and workflow core of an
// employee self-service portal: credential login gated by email OTP
// challenges, a trusted-device skip heuristic, idle-expiring sessions,
// a three-stage account recovery wizard, and approval-gated profile
// update requests. State lives in Redis; the portal backend API and the
// email delivery service are opaque collaborators behind the
// [directory.Client] and [mailer.Sender] interfaces.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goPortal is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Principal, LoginResult, RecoveryState,
// etc.). All internal coordination — challenge storage, cooldown
// windows, session encoding, audit dispatch — lives under internal/ or
// in unexported root types and is never exported.
//
// # What this package must NOT do
//
//   - Persist an OTP plaintext anywhere. Only the SHA-256 digest of a
//     code is stored; the plaintext goes to the mailer and is dropped.
//   - Expose Redis clients, store records, or encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Trust model
//
// Challenge generation and comparison run inside this engine, which is
// expected to be embedded server-side. Verification is digest-against-
// digest in constant time, challenges are single-use with an absolute
// TTL and a bounded attempt count, and resends are rate limited.
package goPortal
