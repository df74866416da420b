package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrExhausted    = errors.New("name generation exhausted")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("not configured")

	ErrUnauthorized = errors.New("upstream unauthorized")
	ErrRateLimited  = errors.New("upstream rate limited")
	ErrUpstream     = errors.New("upstream request failed")

	ErrInvalidBackend  = errors.New("invalid backend")
	ErrDataStoreAccess = errors.New("data store read/write error")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}
