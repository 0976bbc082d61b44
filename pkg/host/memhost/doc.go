// Package memhost is an in-memory host document. It backs the tests and the
// command-line tool, where documents are loaded from JSON fixtures.
package memhost

import (
	"context"
	"fmt"
	"slices"

	"github.com/gnana997/libswap/pkg/host"
)

// Doc is an in-memory document. It is not safe for concurrent use.
type Doc struct {
	name       string
	fileKey    string
	pluginData map[string]string
	pages      []*Page
	current    int
	selection  []string
	thumbnail  string

	nodes map[string]host.Node
	// published holds remote library components and sets by key. They are
	// reachable only through import.
	published map[string]host.Node

	styles      map[string]host.Style // in-document, by id
	styleOrder  []string
	pubStyles   map[string]host.Style // remote, by key
	vars        map[string]host.Variable
	varOrder    []string
	pubVars     map[string]host.Variable
	collections map[string]host.VariableCollection

	rejected    map[string]bool
	brokenFonts map[host.Font]bool
	loadedFonts map[host.Font]bool
	pagesLoaded bool

	// Imports counts successful and failed import calls, by key.
	Imports map[string]int
}

var _ host.Document = (*Doc)(nil)

func (d *Doc) Name() string { return d.name }

// SetName renames the document.
func (d *Doc) SetName(name string) { d.name = name }

func (d *Doc) Pages() []host.Container {
	out := make([]host.Container, len(d.pages))
	for i, p := range d.pages {
		out[i] = p
	}
	return out
}

func (d *Doc) CurrentPage() host.Container {
	if len(d.pages) == 0 {
		return nil
	}
	return d.pages[d.current]
}

func (d *Doc) Selection() []host.Node {
	var out []host.Node
	for _, id := range d.selection {
		if n, ok := d.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Select replaces the selection. Unknown ids are ignored.
func (d *Doc) Select(ids ...string) { d.selection = slices.Clone(ids) }

// Node returns a node by id, or nil.
func (d *Doc) Node(id string) host.Node { return d.nodes[id] }

func (d *Doc) NodeByID(_ context.Context, id string) (host.Node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, fmt.Errorf("memhost: node %s: %w", id, host.ErrNotFound)
	}
	return n, nil
}

func (d *Doc) LoadAllPages(context.Context) error {
	d.pagesLoaded = true
	return nil
}

// FindComponents only sees the current page until LoadAllPages is called.
func (d *Doc) FindComponents(context.Context) ([]host.Node, error) {
	var out []host.Node
	for i, p := range d.pages {
		if !d.pagesLoaded && i != d.current {
			continue
		}
		host.Walk(p, func(n host.Node) bool {
			switch n.Type() {
			case host.NodeComponent, host.NodeComponentSet:
				out = append(out, n)
			case host.NodeInstance:
				return false
			}
			return true
		})
	}
	return out, nil
}

func (d *Doc) localStyle(id string) (host.Style, error) {
	s, ok := d.styles[id]
	if !ok {
		return host.Style{}, fmt.Errorf("memhost: style %s: %w", id, host.ErrNotFound)
	}
	return s, nil
}

func (d *Doc) StyleByID(_ context.Context, id string) (host.Style, error) {
	return d.localStyle(id)
}

// LocalStyles returns the document's own styles of a kind, excluding
// imported remote styles.
func (d *Doc) LocalStyles(_ context.Context, kind host.StyleKind) ([]host.Style, error) {
	var out []host.Style
	for _, id := range d.styleOrder {
		s := d.styles[id]
		if s.Kind == kind && !s.Remote {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *Doc) VariableByID(_ context.Context, id string) (host.Variable, error) {
	v, ok := d.vars[id]
	if !ok {
		return host.Variable{}, fmt.Errorf("memhost: variable %s: %w", id, host.ErrNotFound)
	}
	return v, nil
}

func (d *Doc) LocalVariables(context.Context) ([]host.Variable, error) {
	out := make([]host.Variable, 0, len(d.varOrder))
	for _, id := range d.varOrder {
		out = append(out, d.vars[id])
	}
	return out, nil
}

func (d *Doc) VariableCollection(_ context.Context, id string) (host.VariableCollection, error) {
	c, ok := d.collections[id]
	if !ok {
		return host.VariableCollection{}, fmt.Errorf("memhost: collection %s: %w", id, host.ErrNotFound)
	}
	return c, nil
}

func (d *Doc) checkImport(key string) error {
	d.Imports[key]++
	if d.rejected[key] {
		return fmt.Errorf("memhost: import %s: %w", key, host.ErrImportRejected)
	}
	return nil
}

// ImportComponentByKey resolves published library components first, then
// the document's own components.
func (d *Doc) ImportComponentByKey(_ context.Context, key string) (host.Node, error) {
	if err := d.checkImport(key); err != nil {
		return nil, err
	}
	if n, ok := d.published[key]; ok {
		return n, nil
	}
	for _, n := range d.nodes {
		switch c := n.(type) {
		case *Component:
			if c.key == key {
				return c, nil
			}
		case *ComponentSet:
			if c.key == key {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("memhost: import component %s: %w", key, host.ErrImportRejected)
}

func (d *Doc) ImportComponentSetByKey(ctx context.Context, key string) (host.ComponentSet, error) {
	n, err := d.ImportComponentByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	set, ok := n.(*ComponentSet)
	if !ok {
		return nil, fmt.Errorf("memhost: %s is not a component set: %w", key, host.ErrImportRejected)
	}
	return set, nil
}

func (d *Doc) ImportStyleByKey(_ context.Context, key string) (host.Style, error) {
	if err := d.checkImport(key); err != nil {
		return host.Style{}, err
	}
	for _, id := range d.styleOrder {
		if s := d.styles[id]; s.Key == key {
			return s, nil
		}
	}
	s, ok := d.pubStyles[key]
	if !ok {
		return host.Style{}, fmt.Errorf("memhost: import style %s: %w", key, host.ErrImportRejected)
	}
	d.addStyle(s)
	return s, nil
}

func (d *Doc) ImportVariableByKey(_ context.Context, key string) (host.Variable, error) {
	if err := d.checkImport(key); err != nil {
		return host.Variable{}, err
	}
	for _, id := range d.varOrder {
		if v := d.vars[id]; v.Key == key {
			return v, nil
		}
	}
	v, ok := d.pubVars[key]
	if !ok {
		return host.Variable{}, fmt.Errorf("memhost: import variable %s: %w", key, host.ErrImportRejected)
	}
	d.addVariable(v)
	return v, nil
}

func (d *Doc) LoadFont(_ context.Context, f host.Font) error {
	if d.brokenFonts[f] {
		return fmt.Errorf("memhost: font %s %s unavailable", f.Family, f.Style)
	}
	d.loadedFonts[f] = true
	return nil
}

func (d *Doc) fontLoaded(f host.Font) bool { return d.loadedFonts[f] }

func (d *Doc) OfficialThumbnail(context.Context) (host.Node, error) {
	if d.thumbnail == "" {
		return nil, nil
	}
	return d.nodes[d.thumbnail], nil
}

// ExportPNG returns a deterministic stand-in for image bytes.
func (d *Doc) ExportPNG(_ context.Context, n host.Node, scale float64) ([]byte, error) {
	return fmt.Appendf(nil, "\x89PNG %s@%g", n.ID(), scale), nil
}

func (d *Doc) FileKey() string { return d.fileKey }

func (d *Doc) PluginData(key string) string { return d.pluginData[key] }

func (d *Doc) SetPluginData(key, value string) error {
	d.pluginData[key] = value
	return nil
}

// BindPaintVariable returns a solid paint bound to a colour variable
// already present in the document.
func (d *Doc) BindPaintVariable(p host.Paint, v host.Variable) (host.Paint, error) {
	local, ok := d.vars[v.ID]
	if !ok {
		return host.Paint{}, fmt.Errorf("memhost: bind variable %s: %w", v.ID, host.ErrNotFound)
	}
	if local.Type != host.VariableColor {
		return host.Paint{}, fmt.Errorf("memhost: bind variable %s: type %s is not bindable to a paint", v.ID, local.Type)
	}
	out := host.Paint{Type: host.PaintSolid, Color: p.Color, BoundVariableID: local.ID}
	if c, ok := local.FirstColor(); ok {
		out.Color = c
	}
	return out, nil
}

func (d *Doc) addStyle(s host.Style) {
	if _, ok := d.styles[s.ID]; !ok {
		d.styleOrder = append(d.styleOrder, s.ID)
	}
	d.styles[s.ID] = s
}

func (d *Doc) addVariable(v host.Variable) {
	if _, ok := d.vars[v.ID]; !ok {
		d.varOrder = append(d.varOrder, v.ID)
	}
	d.vars[v.ID] = v
}
