package interfaces

// RateLimiter bounds request rate per client key within a time window.
// The in-process implementation resets on restart; that is an accepted
// limitation, and the interface exists so a shared backing store can be
// swapped in without touching the handlers.
type RateLimiter interface {
	// Allow reports whether the request attributed to key may proceed,
	// and counts it against the current window when it may. The
	// read-check-increment sequence is atomic per key.
	Allow(key string) bool
}
