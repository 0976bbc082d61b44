// Package library holds the registry of connected libraries and the
// immutable lookup snapshot derived from it.
package library

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// ErrNotFound is returned when a library is not registered.
var ErrNotFound = errors.New("library: not found")

// Kind tells whether a library is the synced content of a document or an
// external reference.
type Kind string

const (
	KindLocal  Kind = "Local"
	KindRemote Kind = "Remote"
)

// Library is one registered source of components, styles and variables.
// The JSON shape is the persisted blob format.
type Library struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	// Key mirrors ID in blobs written by older versions.
	Key          string            `json:"key,omitempty"`
	Kind         Kind              `json:"type"`
	LastSyncedAt time.Time         `json:"lastSynced,omitzero"`
	Components   map[string]string `json:"components,omitempty"`
	Styles       map[string]string `json:"styles,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
	// Thumbnail is a data URL.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// IsLocal reports whether the component map may hold document-local ids.
func (l Library) IsLocal() bool { return l.Kind == KindLocal }

// TokenCount is the number of style and variable entries.
func (l Library) TokenCount() int { return len(l.Styles) + len(l.Variables) }

// Clone returns a deep copy.
func (l Library) Clone() Library {
	l.Components = maps.Clone(l.Components)
	l.Styles = maps.Clone(l.Styles)
	l.Variables = maps.Clone(l.Variables)
	return l
}

// Validate checks the library for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (l *Library) Validate() []error {
	var errs []error
	if l.Name == "" {
		errs = append(errs, fmt.Errorf("library name is required"))
	}
	if l.ID == "" {
		errs = append(errs, fmt.Errorf("library %q: id is required", l.Name))
	}
	switch l.Kind {
	case KindLocal, KindRemote:
	default:
		errs = append(errs, fmt.Errorf("library %q: invalid type %q (must be Local/Remote)", l.Name, l.Kind))
	}
	for _, table := range []struct {
		field string
		m     map[string]string
	}{
		{"components", l.Components},
		{"styles", l.Styles},
		{"variables", l.Variables},
	} {
		for _, name := range slices.Sorted(maps.Keys(table.m)) {
			if name == "" {
				errs = append(errs, fmt.Errorf("library %q %s: empty name", l.Name, table.field))
			}
			if table.m[name] == "" {
				errs = append(errs, fmt.Errorf("library %q %s[%q]: key is required", l.Name, table.field, name))
			}
		}
	}
	return errs
}
