package models

import "errors"

// Sentinel errors forming the pipeline's failure taxonomy. Services wrap
// these with fmt.Errorf("...: %w", ...) and handlers classify with
// errors.Is before any response bytes are sent.
var (
	// ErrInvalidInput marks caller-supplied input a service refuses to act on
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable marks a provider that is unreachable or
	// returned a server-side failure
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrOverloaded marks a transient provider overload signal; the only
	// error class the generation client retries
	ErrOverloaded = errors.New("upstream overloaded")
)
