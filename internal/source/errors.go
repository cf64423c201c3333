package source

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers unreachable endpoints, non-2xx responses and an open breaker
	ErrTransport = errors.New("transport error")
	// ErrDecode covers bodies that do not match the expected shape
	ErrDecode = errors.New("decode error")
)

// FetchError is returned by every failed fetch. Kind is ErrTransport or ErrDecode.
type FetchError struct {
	Source Name
	Kind   error
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func transportError(name Name, err error) error {
	return &FetchError{Source: name, Kind: ErrTransport, Err: err}
}

func decodeError(name Name, err error) error {
	return &FetchError{Source: name, Kind: ErrDecode, Err: err}
}
