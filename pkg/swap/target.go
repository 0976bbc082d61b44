package swap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/match"
)

// keyIn looks the name picked from a request up in one component table.
func keyIn(table map[string]string, name func(ComponentRequest) string) match.Strategy[ComponentRequest, string] {
	return func(req ComponentRequest) (string, bool) {
		n := name(req)
		if n == "" {
			return "", false
		}
		k := table[n]
		return k, k != ""
	}
}

var explicitKey match.Strategy[ComponentRequest, string] = func(req ComponentRequest) (string, bool) {
	return req.TargetKey, req.TargetKey != ""
}

// targetKey resolves the component key a request swaps to: the explicit
// key, then the target library's own table by target name, parent name and
// namespace prefix, then the merged table by component name.
func targetKey(snap *library.Snapshot, target string, req ComponentRequest) (string, bool) {
	var own, merged map[string]string
	if l, ok := snap.Library(target); ok {
		own = l.Components
	}
	if e, ok := snap.Entry(target); ok {
		merged = e.Components
	}
	return match.First(
		explicitKey,
		keyIn(own, ComponentRequest.lookupName),
		keyIn(own, func(r ComponentRequest) string { return r.ParentName }),
		keyIn(own, func(r ComponentRequest) string { return prefix(r.lookupName()) }),
		keyIn(merged, func(r ComponentRequest) string { return r.ComponentName }),
	)(req)
}

// isCurrentDocument reports whether the target library is the document
// being edited, so components can be found without importing.
func (e *Engine) isCurrentDocument(snap *library.Snapshot, target string) bool {
	if e.doc.Name() == target {
		return true
	}
	lib, ok := snap.Library(target)
	if !ok {
		return false
	}
	id := e.doc.PluginData(library.PluginDataFileID)
	return id != "" && id == lib.ID
}

type keyed interface {
	host.Node
	Key() string
}

// findLocal looks a component or component set up in the current document,
// by node id and then by key.
func (e *Engine) findLocal(ctx context.Context, key string) (host.Node, bool) {
	if n, err := e.doc.NodeByID(ctx, key); err == nil {
		switch n.Type() {
		case host.NodeComponent, host.NodeComponentSet:
			return n, true
		}
	}
	if err := e.doc.LoadAllPages(ctx); err != nil {
		e.log.Warn("could not load pages", "error", err)
	}
	nodes, err := e.doc.FindComponents(ctx)
	if err != nil {
		e.log.Warn("could not enumerate components", "error", err)
		return nil, false
	}
	for _, n := range nodes {
		if k, ok := n.(keyed); ok && k.Key() == key {
			return n, true
		}
	}
	return nil, false
}

// importCandidates lists the keys tried in order: the resolved key, the
// key of the component's own name when the lookup used another name, the
// parent set's key and the namespace prefix's key.
func importCandidates(snap *library.Snapshot, target string, req ComponentRequest, key string) []string {
	var merged map[string]string
	if e, ok := snap.Entry(target); ok {
		merged = e.Components
	}
	keys := []string{key}
	add := func(name string) {
		if name == "" {
			return
		}
		k := merged[name]
		if k == "" {
			return
		}
		for _, seen := range keys {
			if seen == k {
				return
			}
		}
		keys = append(keys, k)
	}
	if req.ComponentName != req.lookupName() {
		add(req.ComponentName)
	}
	add(req.parent())
	add(prefix(req.ComponentName))
	return keys
}

func (e *Engine) importFirst(ctx context.Context, keys []string) (host.Node, error) {
	var errs []error
	for _, k := range keys {
		n, err := e.doc.ImportComponentByKey(ctx, k)
		if err == nil {
			return n, nil
		}
		e.log.Debug("component import failed", "key", k, "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// resolveTarget finds the component an instance is swapped to, choosing a
// variant when the key names a component set.
func (e *Engine) resolveTarget(ctx context.Context, snap *library.Snapshot, target string, req ComponentRequest, key string) (host.Component, error) {
	var node host.Node
	if e.isCurrentDocument(snap, target) {
		if n, ok := e.findLocal(ctx, key); ok {
			node = n
		}
	}
	if node == nil {
		n, err := e.importFirst(ctx, importCandidates(snap, target, req, key))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
		}
		node = n
	}
	switch n := node.(type) {
	case host.Component:
		return n, nil
	case host.ComponentSet:
		return selectVariant(n, variantSuffix(req.lookupName()))
	}
	return nil, fmt.Errorf("%s is a %s, not a component", node.ID(), node.Type())
}

// selectVariant picks the variant of set named desired: exact name, then
// every Key=Value pair of desired present in the variant's name, then the
// default variant, then the first.
func selectVariant(set host.ComponentSet, desired string) (host.Component, error) {
	variants := set.Variants()
	if len(variants) == 0 {
		return nil, fmt.Errorf("component set %q has no variants", set.Name())
	}
	for _, v := range variants {
		if v.Name() == desired {
			return v, nil
		}
	}
	if want := parsePairs(desired); len(want) > 0 {
		for _, v := range variants {
			have := parsePairs(v.Name())
			if containsAll(have, want) {
				return v, nil
			}
		}
	}
	if d := set.DefaultVariant(); d != nil {
		return d, nil
	}
	return variants[0], nil
}

// parsePairs reads "Key=Value, Key=Value". Parts without '=' are ignored.
func parsePairs(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func containsAll(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
