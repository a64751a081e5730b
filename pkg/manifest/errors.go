package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is matched by every read or write failure.
	ErrIO = errors.New("manifest i/o failed")
	// ErrNoVersion reports a document without a string version field.
	ErrNoVersion = errors.New("manifest has no version field")
)

type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// DecodeError wraps a document that could not be parsed or rendered.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
