package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable means the backing store could not be reached or rejected a write.
	ErrStoreUnavailable = errors.New("signal store unavailable")
	// ErrQuery means the store refused a query as malformed.
	ErrQuery = errors.New("signal query error")
)

// ProbeTransportError is returned when the HEAD request could not complete
// (connection refused, DNS failure, timeout ...).
type ProbeTransportError struct {
	URL string
	Err error
}

func (e *ProbeTransportError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.URL, e.Err)
}

func (e *ProbeTransportError) Unwrap() error { return e.Err }

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}
