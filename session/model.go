package session

// Session defines a public type used by goPortal APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID   string
	PrincipalID string

	StorageKey string

	IPHash        [32]byte
	UserAgentHash [32]byte

	CreatedAt    int64
	ExpiresAt    int64
	LastActivity int64
}
