package swap

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/match"
	"github.com/gnana997/libswap/pkg/propmap"
)

// Engine performs swap batches against one document. Batches must not run
// concurrently; the caller serialises them.
type Engine struct {
	doc host.Document
	log *slog.Logger
}

// New creates an engine for doc. A nil logger uses slog.Default().
func New(doc host.Document, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{doc: doc, log: logger}
}

// Perform swaps every requested component and style under roots from the
// source library to the target library. It never aborts: failures are
// recorded in the report and the batch continues with the next item.
func (e *Engine) Perform(ctx context.Context, roots []host.Node, req Request, snap *library.Snapshot) *Report {
	start := time.Now()
	r := &Report{}

	for _, cr := range req.Components {
		e.swapComponent(ctx, roots, req, cr, snap, r)
	}
	componentMs := time.Since(start).Milliseconds()
	e.log.Info("component swap complete",
		"requests", len(req.Components), "instances", r.InstancesFound,
		"swapped", r.ComponentsSwapped, "errors", len(r.Errors), "ms", componentMs)

	for _, sr := range req.Styles {
		e.swapStyle(ctx, roots, req, sr.Name, snap, r)
	}

	r.TotalTimeMs = time.Since(start).Milliseconds()
	e.log.Info("swap complete",
		"from", req.SourceLibrary, "to", req.TargetLibrary,
		"components", r.ComponentsSwapped, "styles", r.StylesSwapped,
		"errors", len(r.Errors), "outcome", r.Outcome(), "ms", r.TotalTimeMs)
	return r
}

// findInstances returns the instances under roots whose main component is
// name in the source library, in traversal order. A matched instance's
// children are not searched.
func (e *Engine) findInstances(ctx context.Context, roots []host.Node, snap *library.Snapshot, name, source string) []host.Instance {
	var out []host.Instance
	for _, root := range roots {
		host.Walk(root, func(n host.Node) bool {
			inst, ok := n.(host.Instance)
			if !ok {
				return true
			}
			ref, err := match.ResolveRef(ctx, inst)
			if err != nil {
				e.log.Debug("skipping orphaned instance", "node", inst.ID(), "error", err)
				return false
			}
			if match.InstanceMatches(snap, ref, name, source) {
				out = append(out, inst)
				return false
			}
			return true
		})
	}
	return out
}

func (e *Engine) swapComponent(ctx context.Context, roots []host.Node, req Request, cr ComponentRequest, snap *library.Snapshot, r *Report) {
	name := cr.ComponentName
	instances := e.findInstances(ctx, roots, snap, name, req.SourceLibrary)
	if len(instances) == 0 {
		if r.InstancesFound == 0 {
			r.fail(name, "", fmt.Sprintf("No matching instances found for component '%s' in selection.", name), nil)
		}
		return
	}
	r.InstancesFound += len(instances)

	for _, inst := range instances {
		key, ok := targetKey(snap, req.TargetLibrary, cr)
		if !ok {
			r.fail(name, inst.ID(),
				fmt.Sprintf("No mapping for component '%s' in target library '%s'", name, req.TargetLibrary),
				ErrNoMapping)
			continue
		}
		target, err := e.resolveTarget(ctx, snap, req.TargetLibrary, cr, key)
		if err != nil {
			r.fail(name, inst.ID(),
				fmt.Sprintf("Could not find/import component '%s' from target library '%s': %v", name, req.TargetLibrary, err),
				err)
			continue
		}
		if err := e.swapInstance(ctx, inst, target, cr, r); err != nil {
			r.fail(name, inst.ID(), fmt.Sprintf("Failed to swap '%s': %v", name, err), err)
			continue
		}
		r.ComponentsSwapped++
		e.log.Debug("instance swapped", "node", inst.ID(), "component", name, "target", target.Name(), "key", target.Key())
	}
}

// swapInstance replaces the main component of inst and restores the state
// the replacement destroys.
func (e *Engine) swapInstance(ctx context.Context, inst host.Instance, target host.Component, cr ComponentRequest, r *Report) error {
	saved := captureInstance(inst)
	mapped, misses := propmap.ResolveSource(inst.Properties(), cr.PropertyMapping)
	for _, m := range misses {
		e.log.Warn("mapped source property not found", "node", inst.ID(), "target", m.Target, "source", m.Source)
	}

	if err := inst.SwapComponent(ctx, target); err != nil {
		return fmt.Errorf("swap component: %w", err)
	}
	if !cr.PreserveStyleOverrides {
		if err := inst.RemoveOverrides(); err != nil {
			return fmt.Errorf("remove overrides: %w", err)
		}
	}

	props := inst.Properties()
	final := propmap.VariantAssertions(target, props)
	resolved, unresolved := propmap.ResolveTarget(props, mapped)
	maps.Copy(final, resolved)
	for _, id := range unresolved {
		e.log.Warn("mapped property has no counterpart on target", "node", inst.ID(), "property", id)
	}
	applied := e.applyProperties(inst, final, r)

	e.restoreTexts(ctx, inst, saved, final)
	e.restoreNested(inst, saved, final)
	if applied {
		// Nested restores can overwrite values driven by mapped properties.
		if err := inst.SetProperties(final); err != nil {
			e.log.Debug("could not re-apply mapped properties", "node", inst.ID(), "error", err)
		}
	}
	e.restoreLayouts(inst, saved)

	if err := inst.SetTransform(saved.transform); err != nil {
		return fmt.Errorf("restore position: %w", err)
	}
	return nil
}

// applyProperties sets values in one batch and verifies they stuck.
func (e *Engine) applyProperties(inst host.Instance, values map[string]any, r *Report) bool {
	if len(values) == 0 {
		return false
	}
	if err := inst.SetProperties(values); err != nil {
		e.log.Warn("could not apply mapped properties", "node", inst.ID(), "error", err)
		return false
	}
	for _, m := range propmap.Verify(inst.Properties(), values) {
		r.Unverified++
		e.log.Warn("property value did not stick", "node", inst.ID(), "mismatch", m.String())
	}
	return true
}

// restoreTexts writes captured text back by slot. A text node driven by a
// mapped property shows the mapped value instead.
func (e *Engine) restoreTexts(ctx context.Context, inst host.Instance, saved capture, final map[string]any) {
	for _, s := range slots(inst) {
		t, ok := s.node.(host.Text)
		if !ok {
			continue
		}
		if ref := t.PropertyReferences()["characters"]; ref != "" {
			if v, ok := final[ref]; ok {
				e.setText(ctx, t, fmt.Sprint(v), t.Font())
				continue
			}
		}
		st, ok := saved.texts[s.key]
		if !ok || t.Characters() == st.chars {
			continue
		}
		e.setText(ctx, t, st.chars, st.font)
	}
}

func (e *Engine) setText(ctx context.Context, t host.Text, chars string, font host.Font) {
	for _, f := range []host.Font{t.Font(), font} {
		if err := e.doc.LoadFont(ctx, f); err != nil {
			e.log.Warn("could not load font", "node", t.ID(), "family", f.Family, "style", f.Style, "error", err)
			return
		}
	}
	if err := t.SetCharacters(chars); err != nil {
		e.log.Warn("could not restore text", "node", t.ID(), "error", err)
	}
}

// restoreNested reapplies captured nested-instance overrides by base name,
// skipping properties driven by a mapped top-level property.
func (e *Engine) restoreNested(inst host.Instance, saved capture, final map[string]any) {
	for _, s := range slots(inst) {
		n, ok := s.node.(host.Instance)
		if !ok {
			continue
		}
		st, ok := saved.nested[s.key]
		if !ok || len(st.overrides) == 0 {
			continue
		}
		ids := propmap.ByBase(n.Properties())
		refs := n.PropertyReferences()
		values := map[string]any{}
		for base, v := range st.overrides {
			id, ok := ids[base]
			if !ok {
				continue
			}
			if ref := refs[base]; ref != "" {
				if _, mapped := final[ref]; mapped {
					e.log.Debug("nested override driven by mapped property", "node", n.ID(), "property", id, "driver", ref)
					continue
				}
			}
			values[id] = v
		}
		if len(values) == 0 {
			continue
		}
		if err := n.SetProperties(values); err != nil {
			e.log.Warn("could not reapply nested overrides", "node", n.ID(), "slot", s.key.Index, "error", err)
		}
	}
}

// restoreLayouts reapplies captured nested-instance layout and size.
func (e *Engine) restoreLayouts(inst host.Instance, saved capture) {
	for _, s := range slots(inst) {
		n, ok := s.node.(host.Instance)
		if !ok {
			continue
		}
		st, ok := saved.nested[s.key]
		if !ok {
			continue
		}
		if !st.layout.IsZero() {
			if err := n.SetLayout(n.Layout().Overlay(st.layout)); err != nil {
				e.log.Warn("could not reapply layout", "node", n.ID(), "error", err)
			}
		}
		if st.width > 0 && st.height > 0 {
			e.resize(n, st.width, st.height)
		}
	}
}

func (e *Engine) resize(n host.Instance, w, h float64) {
	if fr, ok := n.(host.FreeResizer); ok {
		if err := fr.ResizeWithoutConstraints(w, h); err == nil {
			return
		}
	}
	if err := n.Resize(w, h); err != nil {
		e.log.Warn("could not resize", "node", n.ID(), "error", err)
	}
}
