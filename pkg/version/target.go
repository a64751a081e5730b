package version

import (
	"fmt"
	"strings"
)

// Target selects the version component to increment.
type Target string

const (
	Major      Target = "major"
	Minor      Target = "minor"
	Patch      Target = "patch"
	Prerelease Target = "prerelease"
	Build      Target = "build"
)

// DefaultTarget is used when no target is configured.
const DefaultTarget = Patch

// Targets lists the valid targets from most to least significant.
func Targets() []Target {
	return []Target{Major, Minor, Patch, Prerelease, Build}
}

// ParseTarget matches s case-insensitively against the known targets.
// An empty string yields DefaultTarget.
func ParseTarget(s string) (Target, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultTarget, nil
	}
	t := Target(s)
	if !t.Valid() {
		return "", fmt.Errorf("%q: %w", s, ErrTarget)
	}
	return t, nil
}

func (t Target) Valid() bool {
	switch t {
	case Major, Minor, Patch, Prerelease, Build:
		return true
	}
	return false
}

func (t Target) String() string {
	return string(t)
}
