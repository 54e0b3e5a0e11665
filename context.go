package goPortal

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type networkQualityContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine
// includes it in presence beacons and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the browser User-Agent string to ctx. Used in
// presence beacons alongside the client IP.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithNetworkQuality attaches the connection-quality signal reported by
// the browsing environment to ctx. The device trust heuristic treats a
// degraded connection as a reason to challenge even a trusted device.
func WithNetworkQuality(ctx context.Context, q NetworkQuality) context.Context {
	return context.WithValue(ctx, networkQualityContextKey{}, q)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func networkQualityFromContext(ctx context.Context) NetworkQuality {
	if ctx == nil {
		return NetworkNormal
	}

	q, ok := ctx.Value(networkQualityContextKey{}).(NetworkQuality)
	if !ok {
		return NetworkNormal
	}
	return q
}
