package library

import (
	"maps"
	"slices"
	"sync/atomic"
)

var generation atomic.Uint64

// Entry is one library's merged lookup tables: the built-in defaults for
// its name overlaid with its registered maps.
type Entry struct {
	Name string
	// Registered is false for built-in tables with no registry entry.
	Registered bool
	Library    Library
	Components map[string]string
	Styles     map[string]string
	Variables  map[string]string
}

// IsLocal reports whether the entry belongs to a locally synced library.
func (e Entry) IsLocal() bool { return e.Registered && e.Library.IsLocal() }

// Snapshot is an immutable view of the registry merged with the built-in
// tables. It is rebuilt on every registry mutation and passed explicitly to
// scanning, matching and swapping. Callers must not modify returned maps.
type Snapshot struct {
	// Generation increases with every snapshot built in this process.
	Generation uint64

	entries    []Entry
	index      map[string]int
	registered []Library
}

// NewSnapshot merges libs over the built-in tables. Built-in libraries come
// first, then registered libraries in registry order.
func NewSnapshot(libs []Library) *Snapshot {
	s := &Snapshot{
		Generation: generation.Add(1),
		index:      make(map[string]int),
	}
	for _, name := range defaultOrder {
		s.entries = append(s.entries, Entry{
			Name:       name,
			Components: maps.Clone(defaultComponentKeys[name]),
			Styles:     maps.Clone(defaultStyleKeys[name]),
			Variables:  maps.Clone(defaultVariableKeys[name]),
		})
		s.index[name] = len(s.entries) - 1
	}
	for _, l := range libs {
		l = l.Clone()
		s.registered = append(s.registered, l)
		i, ok := s.index[l.Name]
		if !ok {
			s.entries = append(s.entries, Entry{Name: l.Name})
			i = len(s.entries) - 1
			s.index[l.Name] = i
		}
		e := &s.entries[i]
		e.Registered = true
		e.Library = l
		e.Components = overlay(e.Components, l.Components)
		e.Styles = overlay(e.Styles, l.Styles)
		e.Variables = overlay(e.Variables, l.Variables)
	}
	return s
}

func overlay(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// Entries returns the merged tables in lookup order.
func (s *Snapshot) Entries() []Entry { return s.entries }

// Entry returns the merged tables for one library name.
func (s *Snapshot) Entry(name string) (Entry, bool) {
	i, ok := s.index[name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Registered returns the registry contents the snapshot was built from.
func (s *Snapshot) Registered() []Library { return s.registered }

// Library returns a registered library by name.
func (s *Snapshot) Library(name string) (Library, bool) {
	for _, l := range s.registered {
		if l.Name == name {
			return l, true
		}
	}
	return Library{}, false
}

// IsRegistered reports whether name is present in the registry.
func (s *Snapshot) IsRegistered(name string) bool {
	_, ok := s.Library(name)
	return ok
}

// Empty reports whether the registry was empty.
func (s *Snapshot) Empty() bool { return len(s.registered) == 0 }

// SortedNames returns the keys of m in lexical order. Table lookups iterate
// names in this order so that ties resolve the same way every time.
func SortedNames(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
