package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Registry is the ordered table of connected libraries. Names are unique;
// order is display order only. A Registry is owned by one session and is
// not safe for concurrent use.
type Registry struct {
	libs []Library
}

// NewRegistry builds a registry, upserting libs in order.
func NewRegistry(libs ...Library) *Registry {
	r := &Registry{}
	for _, l := range libs {
		r.Upsert(l)
	}
	return r
}

// Upsert replaces the entry with the same ID, else the entry with the same
// name, else appends. Any other entry left holding the same name is dropped.
// It reports whether an entry was replaced.
func (r *Registry) Upsert(l Library) bool {
	l = l.Clone()
	idx := slices.IndexFunc(r.libs, func(x Library) bool { return x.ID == l.ID })
	if idx < 0 {
		idx = slices.IndexFunc(r.libs, func(x Library) bool { return x.Name == l.Name })
	}
	if idx < 0 {
		r.libs = append(r.libs, l)
		return false
	}
	r.libs[idx] = l
	r.libs = slices.DeleteFunc(r.libs, func(x Library) bool {
		return x.Name == l.Name && x.ID != l.ID
	})
	return true
}

// Remove deletes the library with the given id.
func (r *Registry) Remove(id string) error {
	n := len(r.libs)
	r.libs = slices.DeleteFunc(r.libs, func(x Library) bool { return x.ID == id })
	if len(r.libs) == n {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get looks a library up by name.
func (r *Registry) Get(name string) (Library, bool) {
	for _, l := range r.libs {
		if l.Name == name {
			return l.Clone(), true
		}
	}
	return Library{}, false
}

// ByID looks a library up by id.
func (r *Registry) ByID(id string) (Library, bool) {
	for _, l := range r.libs {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return Library{}, false
}

// List returns a copy of the libraries in display order.
func (r *Registry) List() []Library {
	out := make([]Library, len(r.libs))
	for i, l := range r.libs {
		out[i] = l.Clone()
	}
	return out
}

func (r *Registry) Len() int { return len(r.libs) }

// Clear drops every library.
func (r *Registry) Clear() { r.libs = nil }

// Snapshot builds the lookup snapshot for the current contents.
func (r *Registry) Snapshot() *Snapshot {
	return NewSnapshot(r.libs)
}

// MarshalJSON encodes the registry as the persisted array blob.
func (r *Registry) MarshalJSON() ([]byte, error) {
	libs := r.libs
	if libs == nil {
		libs = []Library{}
	}
	return json.Marshal(libs)
}

// Decode parses a persisted registry blob and validates every entry.
// Entries written before the kind tag existed default to Remote.
func Decode(data []byte) (*Registry, error) {
	var libs []Library
	if err := json.Unmarshal(data, &libs); err != nil {
		return nil, fmt.Errorf("failed to parse library registry: %w", err)
	}
	var errs []error
	for i := range libs {
		if libs[i].Kind == "" {
			libs[i].Kind = KindRemote
		}
		if libs[i].ID == "" && libs[i].Key != "" {
			libs[i].ID = libs[i].Key
		}
		errs = append(errs, libs[i].Validate()...)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("library registry validation failed: %w", errors.Join(errs...))
	}
	return NewRegistry(libs...), nil
}
