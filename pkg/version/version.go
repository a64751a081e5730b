package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// semverPattern is the grammar published on semver.org.
var semverPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

var numericSuffix = regexp.MustCompile(`\d+$`)

// SemVer is a parsed semantic version. Prerelease and Build hold the
// dot-separated identifiers and are nil when absent.
type SemVer struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease []string
	Build      []string
}

// Parse reads a SemVer 2.0 string. Leading "v" prefixes are not accepted.
func Parse(s string) (SemVer, error) {
	m := semverPattern.FindStringSubmatch(s)
	if m == nil {
		return SemVer{}, fmt.Errorf("%q: %w", s, ErrParse)
	}

	var v SemVer
	for i, dst := range []*uint64{&v.Major, &v.Minor, &v.Patch} {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return SemVer{}, fmt.Errorf("%q: %w", s, ErrParse)
		}
		*dst = n
	}
	if m[4] != "" {
		v.Prerelease = strings.Split(m[4], ".")
	}
	if m[5] != "" {
		v.Build = strings.Split(m[5], ".")
	}
	return v, nil
}

func (v SemVer) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Prerelease) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.Prerelease, "."))
	}
	if len(v.Build) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(v.Build, "."))
	}
	return b.String()
}

// Bump returns the next version for target. Components less significant
// than target are reset: numeric fields to 0, prerelease and build dropped.
func (v SemVer) Bump(target Target) (SemVer, error) {
	next := SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch}

	switch target {
	case Major:
		if v.Major == ^uint64(0) {
			return SemVer{}, fmt.Errorf("major %d out of range: %w", v.Major, ErrIncrement)
		}
		next.Major++
		next.Minor = 0
		next.Patch = 0
	case Minor:
		if v.Minor == ^uint64(0) {
			return SemVer{}, fmt.Errorf("minor %d out of range: %w", v.Minor, ErrIncrement)
		}
		next.Minor++
		next.Patch = 0
	case Patch:
		if v.Patch == ^uint64(0) {
			return SemVer{}, fmt.Errorf("patch %d out of range: %w", v.Patch, ErrIncrement)
		}
		next.Patch++
	case Prerelease:
		ids, err := incrementSuffix(v.Prerelease)
		if err != nil {
			return SemVer{}, err
		}
		next.Prerelease = ids
	case Build:
		ids, err := incrementSuffix(v.Build)
		if err != nil {
			return SemVer{}, err
		}
		next.Prerelease = clone(v.Prerelease)
		next.Build = ids
	default:
		return SemVer{}, fmt.Errorf("%q: %w", string(target), ErrTarget)
	}
	return next, nil
}

// incrementSuffix adds one to the trailing run of digits of the last
// identifier. The result is not zero padded, so "001" becomes "2".
func incrementSuffix(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("component is empty: %w", ErrIncrement)
	}
	last := ids[len(ids)-1]
	loc := numericSuffix.FindStringIndex(last)
	if loc == nil {
		return nil, fmt.Errorf("%q has no numeric suffix: %w", strings.Join(ids, "."), ErrIncrement)
	}
	n, err := strconv.ParseUint(last[loc[0]:], 10, 64)
	if err != nil || n == ^uint64(0) {
		return nil, fmt.Errorf("%q numeric suffix out of range: %w", last, ErrIncrement)
	}

	out := clone(ids)
	out[len(out)-1] = last[:loc[0]] + strconv.FormatUint(n+1, 10)
	return out, nil
}

func clone(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return append([]string(nil), ids...)
}

// Increment computes the version that follows current for target. A
// non-empty explicit version is returned verbatim once current has parsed.
func Increment(current string, target Target, explicit string) (string, error) {
	v, err := Parse(current)
	if err != nil {
		return "", &Error{Target: target, Version: current, Err: err}
	}
	if explicit != "" {
		return explicit, nil
	}

	next, err := v.Bump(target)
	if err != nil {
		return "", &Error{Target: target, Version: current, Err: err}
	}
	return next.String(), nil
}

// IsValid reports whether s matches the SemVer 2.0 grammar.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
