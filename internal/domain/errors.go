package domain

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures for logs, metrics, and events.
type Kind string

const (
	KindTransport Kind = "transport"
	KindFetch     Kind = "fetch"
	KindMalformed Kind = "malformed_input"
	KindStorage   Kind = "storage"
	KindUnknown   Kind = "unknown"
)

// TransportError reports that a request to the weather API could not complete
// (network failure, timeout, DNS). The transport's error is wrapped unchanged.
type TransportError struct {
	City string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %q: transport: %v", e.City, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FetchError reports a non-success response from the weather API.
type FetchError struct {
	City   string
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch %q: status %d", e.City, e.Status)
	}
	return fmt.Sprintf("fetch %q: status %d: %s", e.City, e.Status, e.Body)
}

// MalformedInputError reports a payload that is not a JSON object at all.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed observation: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// StorageError reports a persistence failure (I/O, schema).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrorKind returns the taxonomy kind of err, or KindUnknown.
func ErrorKind(err error) Kind {
	var (
		te *TransportError
		fe *FetchError
		me *MalformedInputError
		se *StorageError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &fe):
		return KindFetch
	case errors.As(err, &me):
		return KindMalformed
	case errors.As(err, &se):
		return KindStorage
	default:
		return KindUnknown
	}
}
