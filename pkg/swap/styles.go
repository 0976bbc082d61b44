package swap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/match"
)

// styleSwap is the state of one style request. Imports are resolved once
// per request, on first use.
type styleSwap struct {
	e      *Engine
	r      *Report
	name   string
	target string

	sourceKey      string
	sourceVariable bool
	targetStyleKey string
	targetVarKey   string

	styleDone bool
	style     host.Style
	styleOK   bool

	varDone bool
	variable host.Variable
	varOK   bool

	count int
}

// swapStyle rebinds every node under roots that uses the named style or
// variable of the source library. Unlike component matching, the walk
// descends into instances.
func (e *Engine) swapStyle(ctx context.Context, roots []host.Node, req Request, name string, snap *library.Snapshot, r *Report) {
	src, _ := snap.Entry(req.SourceLibrary)
	dst, _ := snap.Entry(req.TargetLibrary)
	s := &styleSwap{
		e:              e,
		r:              r,
		name:           name,
		target:         req.TargetLibrary,
		sourceKey:      src.Styles[name],
		sourceVariable: src.Variables[name] != "",
		targetStyleKey: dst.Styles[name],
		targetVarKey:   dst.Variables[name],
	}
	if s.sourceKey == "" {
		s.sourceKey = src.Variables[name]
	}
	if s.sourceKey == "" {
		r.fail(name, "", fmt.Sprintf("No mapping for style '%s' in source library '%s'", name, req.SourceLibrary), ErrNoMapping)
		return
	}

	for _, root := range roots {
		host.Walk(root, func(n host.Node) bool {
			s.node(ctx, n)
			return true
		})
	}
	r.StylesSwapped += s.count
	e.log.Debug("style swapped", "style", name, "bindings", s.count)
}

func (s *styleSwap) node(ctx context.Context, n host.Node) {
	fillSwapped := false
	if f, ok := n.(host.FillStyled); ok && s.isSource(ctx, f.FillStyleID(), host.StylePaint) {
		fillSwapped = s.toStyle(ctx, n, host.StylePaint, f.SetFillStyleID)
		if !fillSwapped && s.variableFallback() {
			fillSwapped = s.toVariable(ctx, n, host.FieldFills)
		}
	}
	if s.sourceVariable && !fillSwapped {
		s.boundFills(ctx, n)
	}
	if st, ok := n.(host.StrokeStyled); ok && s.isSource(ctx, st.StrokeStyleID(), host.StylePaint) {
		if !s.toStyle(ctx, n, host.StylePaint, st.SetStrokeStyleID) && s.variableFallback() {
			s.toVariable(ctx, n, host.FieldStrokes)
		}
	}
	if t, ok := n.(host.TextStyled); ok && s.isSource(ctx, t.TextStyleID(), host.StyleText) {
		s.toStyle(ctx, n, host.StyleText, t.SetTextStyleID)
	}
}

// variableFallback reports whether a paint style with no target style
// should bind to a target variable instead.
func (s *styleSwap) variableFallback() bool {
	return s.targetVarKey != "" || s.targetStyleKey == ""
}

func (s *styleSwap) isSource(ctx context.Context, styleID string, kind host.StyleKind) bool {
	if styleID == "" {
		return false
	}
	st, err := s.e.doc.StyleByID(ctx, styleID)
	if err != nil || st.Kind != kind {
		return false
	}
	return st.Key == s.sourceKey || match.NormalizeStyleKey(st.Key) == match.NormalizeStyleKey(s.sourceKey)
}

// boundFills handles fills bound to the source variable: they move to the
// target style, or to the target variable when there is no such style.
func (s *styleSwap) boundFills(ctx context.Context, n host.Node) {
	p, ok := n.(host.Painted)
	if !ok {
		return
	}
	for _, paint := range p.Paints(host.FieldFills) {
		if paint.BoundVariableID == "" {
			continue
		}
		v, err := s.e.doc.VariableByID(ctx, paint.BoundVariableID)
		if err != nil || v.Type != host.VariableColor || v.Name != s.name {
			continue
		}
		if f, ok := n.(host.FillStyled); ok && s.toStyle(ctx, n, host.StylePaint, f.SetFillStyleID) {
			return
		}
		if s.targetVarKey != "" {
			s.toVariable(ctx, n, host.FieldFills)
		}
		return
	}
}

func (s *styleSwap) importStyle(ctx context.Context) (host.Style, bool) {
	if s.styleDone {
		return s.style, s.styleOK
	}
	s.styleDone = true
	if s.targetStyleKey == "" {
		return host.Style{}, false
	}
	st, err := s.e.doc.ImportStyleByKey(ctx, s.targetStyleKey)
	if err != nil {
		s.r.fail(s.name, "", fmt.Sprintf("Could not import style '%s' from target library '%s': %v", s.name, s.target, err), err)
		return host.Style{}, false
	}
	s.style, s.styleOK = st, true
	return st, true
}

// toStyle assigns the target style through set. It reports whether the
// binding was swapped.
func (s *styleSwap) toStyle(ctx context.Context, n host.Node, kind host.StyleKind, set func(context.Context, string) error) bool {
	st, ok := s.importStyle(ctx)
	if !ok || st.Kind != kind {
		return false
	}
	if err := set(ctx, st.ID); err != nil {
		s.r.fail(s.name, n.ID(), fmt.Sprintf("Error swapping style '%s': %v", s.name, err), err)
		return false
	}
	s.count++
	return true
}

// resolveVariable finds the target variable: import by key, then a
// same-named variable in the document preferring one whose collection name
// contains the target library name, then a "<group>/<name>" suffix match.
func (s *styleSwap) resolveVariable(ctx context.Context) (host.Variable, bool) {
	if s.varDone {
		return s.variable, s.varOK
	}
	s.varDone = true
	if s.targetVarKey != "" {
		v, err := s.e.doc.ImportVariableByKey(ctx, s.targetVarKey)
		if err == nil {
			s.variable, s.varOK = v, true
			return v, true
		}
		s.e.log.Debug("variable import failed, searching by name", "variable", s.name, "key", s.targetVarKey, "error", err)
	}
	locals, err := s.e.doc.LocalVariables(ctx)
	if err != nil {
		s.r.fail(s.name, "", fmt.Sprintf("Could not list variables for '%s': %v", s.name, err), err)
		return host.Variable{}, false
	}
	var candidates []host.Variable
	for _, v := range locals {
		if v.Name == s.name {
			candidates = append(candidates, v)
		}
	}
	for _, v := range candidates {
		c, err := s.e.doc.VariableCollection(ctx, v.CollectionID)
		if err == nil && strings.Contains(c.Name, s.target) {
			s.variable, s.varOK = v, true
			return v, true
		}
	}
	if len(candidates) > 0 {
		s.variable, s.varOK = candidates[0], true
		return candidates[0], true
	}
	for _, v := range locals {
		if strings.HasSuffix(v.Name, "/"+s.name) {
			s.variable, s.varOK = v, true
			return v, true
		}
	}
	s.r.fail(s.name, "", fmt.Sprintf("No style or variable named '%s' in target library '%s'", s.name, s.target), ErrNoMapping)
	return host.Variable{}, false
}

// toVariable replaces a non-empty paint list with a single paint bound to
// the target variable. It reports whether the binding was swapped.
func (s *styleSwap) toVariable(ctx context.Context, n host.Node, field host.PaintField) bool {
	p, ok := n.(host.Painted)
	if !ok || len(p.Paints(field)) == 0 {
		return false
	}
	v, ok := s.resolveVariable(ctx)
	if !ok {
		return false
	}
	bound, err := s.e.doc.BindPaintVariable(host.Paint{Type: host.PaintSolid}, v)
	if err == nil {
		err = p.SetPaints(field, []host.Paint{bound})
	}
	if err != nil {
		s.r.fail(s.name, n.ID(), fmt.Sprintf("Error swapping style '%s': %v", s.name, err), err)
		return false
	}
	s.count++
	return true
}

// PreviewTargetColor resolves the colour a style name has in the target
// library: the variable's first mode, else the paint style's first solid
// paint.
func (e *Engine) PreviewTargetColor(ctx context.Context, name, target string, snap *library.Snapshot) (string, bool) {
	entry, _ := snap.Entry(target)
	if key := entry.Variables[name]; key != "" {
		if v, err := e.doc.ImportVariableByKey(ctx, key); err == nil {
			if c, ok := v.FirstColor(); ok {
				return c.Hex(), true
			}
		} else {
			e.log.Debug("preview variable import failed", "name", name, "error", err)
		}
	}
	key := entry.Styles[name]
	if lib, ok := snap.Library(target); ok && lib.Styles[name] != "" {
		key = lib.Styles[name]
	}
	if key == "" {
		return "", false
	}
	st, err := e.doc.ImportStyleByKey(ctx, key)
	if err != nil {
		e.log.Debug("preview style import failed", "name", name, "error", err)
		return "", false
	}
	if st.Kind != host.StylePaint {
		return "", false
	}
	p, ok := st.FirstSolid()
	if !ok {
		return "", false
	}
	return p.Color.Hex(), true
}
