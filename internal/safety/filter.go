// Package safety provides command filtering, confirmation tokens, and audit
// logging for operations that change UPS state.
package safety

import (
	"errors"
	"fmt"
	"path"
)

// ErrCommandDenied is wrapped by Filter.Check when a command is not permitted.
var ErrCommandDenied = errors.New("command not permitted")

// Filter decides which NUT instant commands may be sent, using glob patterns
// such as "shutdown.*" or "beeper.toggle".
//
// Rules:
//   - If both lists are empty (or nil), every command is allowed.
//   - Denylist always takes priority over the allowlist.
//   - If a non-empty allowlist is present, a command must match at least one
//     allowlist pattern to be permitted.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist
// pattern slices. Either or both may be nil or empty.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether command is permitted. A nil Filter allows
// everything.
func (f *Filter) IsAllowed(command string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.denylist {
		if matchGlob(pattern, command) {
			return false
		}
	}
	if len(f.allowlist) == 0 {
		return true
	}
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, command) {
			return true
		}
	}
	return false
}

// Check returns an error wrapping ErrCommandDenied when command is not allowed.
func (f *Filter) Check(command string) error {
	if f.IsAllowed(command) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrCommandDenied, command)
}

// matchGlob reports whether name matches pattern. Malformed patterns never match.
func matchGlob(pattern, name string) bool {
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}
