// Package internal holds randomness, hashing, and identifier helpers
// shared by the goPortal root package. Nothing here is part of the
// public API.
package internal
