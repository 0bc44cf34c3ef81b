package classify

import "fmt"

// TransportError wraps a transport-layer failure from the HTTP client
// facade (C1) with its classification kind, so callers (notably the
// retry engine's default classifier) can dispatch on Kind without
// string-matching error messages.
type TransportError struct {
	Kind TransportFailureKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError constructs a TransportError of the given kind.
func NewTransportError(kind TransportFailureKind, err error) *TransportError {
	return &TransportError{Kind: kind, Err: err}
}
