package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"transport", &TransportError{City: "Perth", Err: context.DeadlineExceeded}, KindTransport},
		{"fetch", &FetchError{City: "Perth", Status: 503, Body: "unavailable"}, KindFetch},
		{"malformed", &MalformedInputError{Err: errNotAnObject}, KindMalformed},
		{"storage", &StorageError{Op: "append", Err: errors.New("disk full")}, KindStorage},
		{"wrapped fetch", fmt.Errorf("city step: %w", &FetchError{Status: 404}), KindFetch},
		{"plain", errors.New("boom"), KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorKind(tc.err))
		})
	}
}

func TestTransportError_UnwrapsCause(t *testing.T) {
	err := &TransportError{City: "Perth", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "Perth")
}

func TestFetchError_Message(t *testing.T) {
	assert.Equal(t, `fetch "Perth": status 503: down`, (&FetchError{City: "Perth", Status: 503, Body: "down"}).Error())
	assert.Equal(t, `fetch "Perth": status 500`, (&FetchError{City: "Perth", Status: 500}).Error())
}

func TestStorageError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &StorageError{Op: "append", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage append: disk full", err.Error())
}
