// Package token manages portal access-token issuance and verification using
// configured signing keys and strict validation semantics suitable for
// low-latency resume paths.
package token
