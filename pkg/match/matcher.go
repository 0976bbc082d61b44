package match

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/libswap/pkg/library"
)

// DefaultCacheSize is the number of results a Matcher keeps.
const DefaultCacheSize = 4096

type lookupKind uint8

const (
	lookupComponent lookupKind = iota
	lookupStyle
	lookupVariable
)

// cacheKey identifies one lookup against one snapshot. A new snapshot has a
// new generation, so stale results are never served; they age out.
type cacheKey struct {
	generation uint64
	kind       lookupKind
	ref        ComponentRef
}

type cached struct {
	result Result
	ok     bool
}

// Stats reports cache behaviour.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// Matcher resolves live assets against a library snapshot. It is safe for
// concurrent use.
type Matcher struct {
	cache  *lru.Cache[cacheKey, cached]
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewMatcher creates a matcher caching up to size results. A size of zero
// uses DefaultCacheSize; a nil logger uses slog.Default().
func NewMatcher(size int, logger *slog.Logger) (*Matcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if size == 0 {
		size = DefaultCacheSize
	}
	m := &Matcher{logger: logger}
	cache, err := lru.NewWithEvict(size, func(key cacheKey, _ cached) {
		logger.Debug("match cache evicting", "generation", key.generation, "key", key.ref.Key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create match cache: %w", err)
	}
	m.cache = cache
	return m, nil
}

func (m *Matcher) lookup(key cacheKey, resolve func() (Result, bool)) (Result, bool) {
	if v, ok := m.cache.Get(key); ok {
		m.hits.Add(1)
		return v.result, v.ok
	}
	m.misses.Add(1)
	r, ok := resolve()
	if m.cache.Add(key, cached{result: r, ok: ok}) {
		m.evictions.Add(1)
	}
	return r, ok
}

// MatchComponent finds the library a main component belongs to. Ties keep
// the first library in snapshot order and the first name in lexical order,
// so the answer is stable for a given snapshot.
func (m *Matcher) MatchComponent(snap *library.Snapshot, ref ComponentRef) (Result, bool) {
	key := cacheKey{generation: snap.Generation, kind: lookupComponent, ref: ref}
	return m.lookup(key, func() (Result, bool) {
		r, ok := componentChain(snap)(ref)
		if ok {
			r.FileID = ref.FileID()
			m.logger.Debug("component matched", "component", ref.Name, "library", r.Library, "name", r.Name, "score", r.Score)
		}
		return r, ok
	})
}

// NormalizeStyleKey strips the "S:" marker and a trailing separator that
// style ids carry.
func NormalizeStyleKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, "S:"), ",")
}

// MatchStyle finds the library whose style table holds key.
func (m *Matcher) MatchStyle(snap *library.Snapshot, key string) (Result, bool) {
	ck := cacheKey{generation: snap.Generation, kind: lookupStyle, ref: ComponentRef{Key: key}}
	return m.lookup(ck, func() (Result, bool) {
		norm := NormalizeStyleKey(key)
		for _, e := range snap.Entries() {
			for _, name := range library.SortedNames(e.Styles) {
				mapped := e.Styles[name]
				if mapped == "" {
					continue
				}
				if mapped == key || NormalizeStyleKey(mapped) == norm {
					return Result{Library: e.Name, Name: name, ParentName: name, Score: ScoreExact}, true
				}
			}
		}
		return Result{}, false
	})
}

// MatchVariable finds the library whose variable table holds key, then
// falls back to style tables for tokens published as both.
func (m *Matcher) MatchVariable(snap *library.Snapshot, key string) (Result, bool) {
	ck := cacheKey{generation: snap.Generation, kind: lookupVariable, ref: ComponentRef{Key: key}}
	return m.lookup(ck, func() (Result, bool) {
		return First(
			exactIn(snap, key, func(e library.Entry) map[string]string { return e.Variables }),
			exactIn(snap, key, func(e library.Entry) map[string]string { return e.Styles }),
		)(key)
	})
}

func exactIn(snap *library.Snapshot, key string, table func(library.Entry) map[string]string) Strategy[string, Result] {
	return func(string) (Result, bool) {
		if key == "" {
			return Result{}, false
		}
		for _, e := range snap.Entries() {
			t := table(e)
			for _, name := range library.SortedNames(t) {
				if t[name] == key {
					return Result{Library: e.Name, Name: name, ParentName: name, Score: ScoreExact}, true
				}
			}
		}
		return Result{}, false
	}
}

// InstanceMatches reports whether a main component is the table entry name
// of lib: key equality, then local id equality, then name equality.
func InstanceMatches(snap *library.Snapshot, ref ComponentRef, name, lib string) bool {
	e, ok := snap.Entry(lib)
	if !ok {
		return false
	}
	expected := e.Components[name]
	if expected == "" {
		return false
	}
	return ref.Key == expected || ref.ID == expected || ref.Name == name
}

// Stats returns cache statistics.
func (m *Matcher) Stats() Stats {
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Size:      m.cache.Len(),
	}
}

// Purge drops every cached result.
func (m *Matcher) Purge() {
	m.cache.Purge()
}
