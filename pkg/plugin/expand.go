package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/libswap/pkg/swap"
)

// IsPattern reports whether a component name is a glob pattern.
func IsPattern(name string) bool {
	return strings.ContainsAny(name, "*?[{")
}

// ExpandComponents replaces every request whose name is a glob pattern
// ("Button/**", "Icon/{Add,Remove}") with one copy per matching name.
// Names are '/'-separated like paths. Plain requests, and requests naming a
// component in names exactly ("Button [Deprecated]"), pass through unchanged.
// A name produced by more than one request is kept once, from the first.
// Patterns that match nothing are returned in unmatched.
func ExpandComponents(reqs []swap.ComponentRequest, names []string) (out []swap.ComponentRequest, unmatched []string, err error) {
	exact := make(map[string]bool, len(names))
	for _, n := range names {
		exact[n] = true
	}
	seen := map[string]bool{}
	add := func(r swap.ComponentRequest) {
		if seen[r.ComponentName] {
			return
		}
		seen[r.ComponentName] = true
		out = append(out, r)
	}
	for _, r := range reqs {
		if exact[r.ComponentName] || !IsPattern(r.ComponentName) {
			add(r)
			continue
		}
		if !doublestar.ValidatePattern(r.ComponentName) {
			return nil, nil, &PatternError{Pattern: r.ComponentName}
		}
		matched := false
		for _, n := range names {
			if ok, _ := doublestar.Match(r.ComponentName, n); ok {
				c := r
				c.ComponentName = n
				add(c)
				matched = true
			}
		}
		if !matched {
			unmatched = append(unmatched, r.ComponentName)
		}
	}
	return out, unmatched, nil
}

// ErrNoPatternMatch marks a swap item whose pattern matched no component.
var ErrNoPatternMatch = errors.New("plugin: pattern matched no component")

// PatternError is returned for a malformed component pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid component pattern %q", e.Pattern)
}
