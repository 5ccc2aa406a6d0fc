package feed

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("missing required field")

// DecodeError reports a payload that is not well-formed or lacks a required field.
type DecodeError struct {
	Feed    string
	Err     error
	Payload string
}

func (e *DecodeError) Error() string {
	if e.Feed == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("%s feed: decode: %v", e.Feed, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func missing(field string) error {
	return fmt.Errorf("%w %q", ErrMissingField, field)
}
