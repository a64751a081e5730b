package version

import (
	"errors"
	"fmt"
)

var (
	// ErrParse reports a version string outside the SemVer 2.0 grammar.
	ErrParse = errors.New("invalid semantic version")
	// ErrIncrement reports a prerelease or build component without a
	// numeric suffix.
	ErrIncrement = errors.New("no numeric suffix to increment")
	// ErrTarget reports an unknown increment target.
	ErrTarget = errors.New("unknown increment target")
)

// Error is returned by Increment. It unwraps to one of ErrParse,
// ErrIncrement or ErrTarget.
type Error struct {
	Target  Target
	Version string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to increase %s version number: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
