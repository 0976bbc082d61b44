package match

import (
	"context"
	"strings"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/library"
)

// Scores assigned by the component tiers.
const (
	ScoreExact         = 5.0
	ScoreItemID        = 4.0
	ScoreKeyContains   = 3.0
	ScoreMappedHasItem = 2.0
	ScoreName          = 1.0
	ScoreFileID        = 0.5
	ScoreFileIDPartial = 0.2
)

// ComponentRef is what the matcher needs to know about a main component.
type ComponentRef struct {
	ID  string
	Key string
	// Name is the component's own name ("Shape=Square" for a variant).
	Name string
	// SetName is the owning variant set's name, empty for standalone components.
	SetName string
	Remote  bool
}

// RefOf describes c for matching.
func RefOf(c host.Component) ComponentRef {
	ref := ComponentRef{ID: c.ID(), Key: c.Key(), Name: c.Name(), Remote: c.Remote()}
	if set := c.Set(); set != nil {
		ref.SetName = set.Name()
	}
	return ref
}

// ResolveRef resolves an instance's main component and describes it.
func ResolveRef(ctx context.Context, inst host.Instance) (ComponentRef, error) {
	c, err := inst.MainComponent(ctx)
	if err != nil {
		return ComponentRef{}, err
	}
	return RefOf(c), nil
}

// FileID is the file-scope prefix of the key ("file/page/item" -> "file").
func (r ComponentRef) FileID() string {
	prefix, _, _ := strings.Cut(r.Key, "/")
	return prefix
}

// ItemID is the last path segment of the key, or the whole key when that
// segment is empty.
func (r ComponentRef) ItemID() string {
	if i := strings.LastIndex(r.Key, "/"); i >= 0 && i < len(r.Key)-1 {
		return r.Key[i+1:]
	}
	return r.Key
}

// parentName is the display name for a match on name.
func (r ComponentRef) parentName(name string) string {
	if r.SetName != "" {
		return r.SetName
	}
	return name
}

// Result is a resolved library membership.
type Result struct {
	Library string
	// Name is the matched table name, used for swapping.
	Name string
	// ParentName is the variant set name, or Name for standalone components.
	ParentName string
	Score      float64
	FileID     string
}

// componentChain builds the fallback chain for snap.
func componentChain(snap *library.Snapshot) Strategy[ComponentRef, Result] {
	return First(
		scoredTables(snap),
		registryExactKey(snap),
		fileIDMatch(snap),
		fileIDPartialMatch(snap),
	)
}

// scoredTables scores every merged table entry and keeps the first best.
func scoredTables(snap *library.Snapshot) Strategy[ComponentRef, Result] {
	return func(ref ComponentRef) (Result, bool) {
		var best Result
		for _, e := range snap.Entries() {
			local := e.IsLocal()
			for _, name := range library.SortedNames(e.Components) {
				s := score(ref, name, e.Components[name], local)
				if s > best.Score {
					best = Result{Library: e.Name, Name: name, ParentName: ref.parentName(name), Score: s}
				}
			}
		}
		return best, best.Score > 0
	}
}

func score(ref ComponentRef, name, mapped string, local bool) float64 {
	if mapped == "" {
		return 0
	}
	if local {
		switch {
		case mapped == ref.ID, mapped == ref.Key:
			return ScoreExact
		case ref.Name == name:
			return ScoreName
		}
		return 0
	}
	switch {
	case mapped == ref.Key:
		return ScoreExact
	case ref.Key == "":
	case mapped == ref.ItemID():
		return ScoreItemID
	case strings.Contains(ref.Key, mapped):
		return ScoreKeyContains
	case strings.Contains(mapped, ref.ItemID()):
		return ScoreMappedHasItem
	}
	if ref.Name == name {
		return ScoreName
	}
	return 0
}

// registryExactKey scans the raw registered maps for the key, independent
// of the merged tables.
func registryExactKey(snap *library.Snapshot) Strategy[ComponentRef, Result] {
	return func(ref ComponentRef) (Result, bool) {
		if ref.Key == "" {
			return Result{}, false
		}
		for _, l := range snap.Registered() {
			for _, name := range library.SortedNames(l.Components) {
				if l.Components[name] == ref.Key {
					return Result{Library: l.Name, Name: name, ParentName: ref.parentName(name), Score: ScoreExact}, true
				}
			}
		}
		return Result{}, false
	}
}

// fileIDMatch matches the key's file prefix against library ids.
func fileIDMatch(snap *library.Snapshot) Strategy[ComponentRef, Result] {
	return func(ref ComponentRef) (Result, bool) {
		prefix := ref.FileID()
		if prefix == "" {
			return Result{}, false
		}
		for _, l := range snap.Registered() {
			if l.ID == prefix || (l.Key != "" && l.Key == prefix) {
				return Result{Library: l.Name, Name: ref.Name, ParentName: ref.parentName(ref.Name), Score: ScoreFileID}, true
			}
		}
		return Result{}, false
	}
}

// fileIDPartialMatch tolerates id format drift: the file prefix only has
// to contain the library id.
func fileIDPartialMatch(snap *library.Snapshot) Strategy[ComponentRef, Result] {
	return func(ref ComponentRef) (Result, bool) {
		prefix := ref.FileID()
		if prefix == "" {
			return Result{}, false
		}
		for _, l := range snap.Registered() {
			if (l.ID != "" && strings.Contains(prefix, l.ID)) || (l.Key != "" && strings.Contains(prefix, l.Key)) {
				return Result{Library: l.Name, Name: ref.Name, ParentName: ref.Name, Score: ScoreFileIDPartial}, true
			}
		}
		return Result{}, false
	}
}
