package memhost

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnana997/libswap/pkg/host"
)

type base struct {
	doc  *Doc
	id   string
	name string
	typ  host.NodeType
}

func (b *base) ID() string          { return b.id }
func (b *base) Name() string        { return b.name }
func (b *base) Type() host.NodeType { return b.typ }

type geometry struct {
	x, y, rotation float64
	width, height  float64
	// lockResize makes Resize fail, for exercising the free-resize path.
	lockResize bool
}

func (g *geometry) Transform() host.Transform {
	return host.Transform{X: g.x, Y: g.y, Rotation: g.rotation}
}

func (g *geometry) SetTransform(t host.Transform) error {
	g.x, g.y, g.rotation = t.X, t.Y, t.Rotation
	return nil
}

func (g *geometry) Size() (float64, float64) { return g.width, g.height }

func (g *geometry) Resize(w, h float64) error {
	if g.lockResize {
		return fmt.Errorf("memhost: resize rejected by constraints")
	}
	g.width, g.height = w, h
	return nil
}

func (g *geometry) ResizeWithoutConstraints(w, h float64) error {
	g.width, g.height = w, h
	return nil
}

type styling struct {
	d           *Doc
	fillStyle   string
	strokeStyle string
	effectStyle string
	gridStyle   string
	fills       []host.Paint
	strokes     []host.Paint
}

func (s *styling) FillStyleID() string   { return s.fillStyle }
func (s *styling) StrokeStyleID() string { return s.strokeStyle }
func (s *styling) EffectStyleID() string { return s.effectStyle }
func (s *styling) GridStyleID() string   { return s.gridStyle }

func (s *styling) SetFillStyleID(_ context.Context, id string) error {
	st, err := s.d.localStyle(id)
	if err != nil {
		return err
	}
	s.fillStyle = id
	s.fills = slices.Clone(st.Paints)
	return nil
}

func (s *styling) SetStrokeStyleID(_ context.Context, id string) error {
	st, err := s.d.localStyle(id)
	if err != nil {
		return err
	}
	s.strokeStyle = id
	s.strokes = slices.Clone(st.Paints)
	return nil
}

func (s *styling) Paints(field host.PaintField) []host.Paint {
	if field == host.FieldStrokes {
		return slices.Clone(s.strokes)
	}
	return slices.Clone(s.fills)
}

// SetPaints replaces a paint list. Like the real host, writing paints
// detaches the corresponding style.
func (s *styling) SetPaints(field host.PaintField, paints []host.Paint) error {
	switch field {
	case host.FieldFills:
		s.fills = slices.Clone(paints)
		s.fillStyle = ""
	case host.FieldStrokes:
		s.strokes = slices.Clone(paints)
		s.strokeStyle = ""
	default:
		return fmt.Errorf("memhost: unknown paint field %q", field)
	}
	return nil
}

func (s *styling) clone(doc *Doc) styling {
	return styling{
		d:           doc,
		fillStyle:   s.fillStyle,
		strokeStyle: s.strokeStyle,
		effectStyle: s.effectStyle,
		gridStyle:   s.gridStyle,
		fills:       slices.Clone(s.fills),
		strokes:     slices.Clone(s.strokes),
	}
}

// Page is a top-level page.
type Page struct {
	base
	children []host.Node
}

func (p *Page) Children() []host.Node { return slices.Clone(p.children) }

// Frame is a frame or group.
type Frame struct {
	base
	geometry
	styling
	children []host.Node
}

func (f *Frame) Children() []host.Node { return slices.Clone(f.children) }

// Shape is a leaf vector node (rectangle, ellipse, vector).
type Shape struct {
	base
	geometry
	styling
}

// Text is a text node.
type Text struct {
	base
	geometry
	styling
	textStyle string
	chars     string
	font      host.Font
	refs      map[string]string
}

func (t *Text) TextStyleID() string { return t.textStyle }

func (t *Text) SetTextStyleID(_ context.Context, id string) error {
	if _, err := t.doc.localStyle(id); err != nil {
		return err
	}
	t.textStyle = id
	return nil
}

func (t *Text) Characters() string { return t.chars }

func (t *Text) SetCharacters(s string) error {
	if !t.doc.fontLoaded(t.font) {
		return fmt.Errorf("memhost: %s %s/%s: %w", t.id, t.font.Family, t.font.Style, host.ErrFontNotLoaded)
	}
	t.chars = s
	return nil
}

func (t *Text) Font() host.Font { return t.font }

func (t *Text) PropertyReferences() map[string]string { return maps.Clone(t.refs) }

// Component is a component definition, standalone or a variant.
type Component struct {
	Frame
	key          string
	remote       bool
	set          *ComponentSet
	variantProps map[string]string
	defs         map[string]host.PropertyDefinition
}

func (c *Component) Key() string  { return c.key }
func (c *Component) Remote() bool { return c.remote }

func (c *Component) Set() host.ComponentSet {
	if c.set == nil {
		return nil
	}
	return c.set
}

func (c *Component) VariantProperties() map[string]string { return maps.Clone(c.variantProps) }

// PropertyDefinitions returns the definitions that govern instances of c:
// the set's for a variant, c's own otherwise.
func (c *Component) PropertyDefinitions() map[string]host.PropertyDefinition {
	if c.set != nil {
		return maps.Clone(c.set.defs)
	}
	return maps.Clone(c.defs)
}

// ComponentSet groups variants.
type ComponentSet struct {
	Frame
	key            string
	remote         bool
	defs           map[string]host.PropertyDefinition
	defaultVariant string
}

func (s *ComponentSet) Key() string { return s.key }

func (s *ComponentSet) Variants() []host.Component {
	var out []host.Component
	for _, ch := range s.children {
		if c, ok := ch.(*Component); ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *ComponentSet) DefaultVariant() host.Component {
	for _, v := range s.Variants() {
		if v.ID() == s.defaultVariant {
			return v
		}
	}
	return nil
}

func (s *ComponentSet) PropertyDefinitions() map[string]host.PropertyDefinition {
	return maps.Clone(s.defs)
}

// Instance is a placed copy of a component.
type Instance struct {
	Frame
	main   *Component
	props  map[string]host.PropertyValue
	layout host.Layout
	refs   map[string]string
}

func (i *Instance) MainComponent(context.Context) (host.Component, error) {
	if i.main == nil {
		return nil, fmt.Errorf("memhost: instance %s has no main component: %w", i.id, host.ErrNotFound)
	}
	return i.main, nil
}

// SwapComponent rebinds the instance. Property values are rebuilt from the
// new component's definitions and children from its template, so every
// override is lost, as with the real host.
func (i *Instance) SwapComponent(_ context.Context, c host.Component) error {
	comp, ok := c.(*Component)
	if !ok || comp == nil {
		return fmt.Errorf("memhost: cannot swap %s to foreign component %T", i.id, c)
	}
	i.main = comp
	i.width, i.height = comp.width, comp.height
	i.props = defaultProps(comp)
	i.rebuildChildren()
	return nil
}

func (i *Instance) Properties() map[string]host.PropertyValue { return maps.Clone(i.props) }

// SetProperties validates every id before applying any value. A variant
// property change switches the main component to the matching variant.
func (i *Instance) SetProperties(values map[string]any) error {
	variant := map[string]string{}
	for id, v := range values {
		pv, ok := i.props[id]
		if !ok {
			return fmt.Errorf("memhost: %s: property %q: %w", i.id, id, host.ErrNotFound)
		}
		if pv.Type == host.PropVariant {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("memhost: %s: variant property %q wants a string, got %T", i.id, id, v)
			}
			variant[id] = s
		}
	}
	if len(variant) > 0 {
		if err := i.switchVariant(variant); err != nil {
			return err
		}
	}
	for id, v := range values {
		pv := i.props[id]
		pv.Value = v
		i.props[id] = pv
	}
	i.applyTextProps()
	return nil
}

func (i *Instance) switchVariant(want map[string]string) error {
	if i.main == nil || i.main.set == nil {
		return fmt.Errorf("memhost: %s is not a variant instance", i.id)
	}
	desired := map[string]string{}
	for id, pv := range i.props {
		if pv.Type == host.PropVariant {
			if s, ok := pv.Value.(string); ok {
				desired[id] = s
			}
		}
	}
	maps.Copy(desired, want)
	for _, v := range i.main.set.Variants() {
		vc := v.(*Component)
		if maps.Equal(vc.variantProps, desired) {
			if vc != i.main {
				i.main = vc
				i.rebuildChildren()
			}
			return nil
		}
	}
	return fmt.Errorf("memhost: %s: no variant matches %v", i.id, desired)
}

// RemoveOverrides resets property values and children to the main
// component's defaults. The chosen variant is kept.
func (i *Instance) RemoveOverrides() error {
	if i.main == nil {
		return fmt.Errorf("memhost: instance %s has no main component: %w", i.id, host.ErrNotFound)
	}
	i.props = defaultProps(i.main)
	i.fillStyle, i.strokeStyle = "", ""
	i.fills, i.strokes = nil, nil
	i.rebuildChildren()
	return nil
}

func (i *Instance) Layout() host.Layout { return i.layout }

func (i *Instance) SetLayout(l host.Layout) error {
	i.layout = l
	return nil
}

func (i *Instance) PropertyReferences() map[string]string { return maps.Clone(i.refs) }

func (i *Instance) rebuildChildren() {
	i.children = nil
	if i.main == nil {
		return
	}
	for _, ch := range i.main.children {
		i.children = append(i.children, i.doc.cloneNode(ch, i.id))
	}
	i.applyTextProps()
}

// applyTextProps pushes TEXT property values into the text nodes that
// reference them.
func (i *Instance) applyTextProps() {
	for _, n := range host.Descendants(i) {
		t, ok := n.(*Text)
		if !ok {
			continue
		}
		ref := t.refs["characters"]
		if ref == "" {
			continue
		}
		if pv, ok := i.props[ref]; ok && pv.Type == host.PropText {
			if s, ok := pv.Value.(string); ok {
				t.chars = s
			}
		}
	}
}

func defaultProps(c *Component) map[string]host.PropertyValue {
	out := map[string]host.PropertyValue{}
	for id, def := range c.PropertyDefinitions() {
		v := def.DefaultValue
		if def.Type == host.PropVariant {
			v = c.variantProps[id]
		}
		out[id] = host.PropertyValue{Type: def.Type, Value: v}
	}
	return out
}

// cloneNode deep-copies a template node into an instance. Ids are derived
// from the owning instance the way the real host derives them.
func (d *Doc) cloneNode(n host.Node, owner string) host.Node {
	id := "I" + strings.TrimPrefix(owner, "I") + ";" + strings.TrimPrefix(n.ID(), "I")
	var out host.Node
	switch src := n.(type) {
	case *Text:
		t := &Text{
			base:      base{doc: d, id: id, name: src.name, typ: src.typ},
			geometry:  src.geometry,
			styling:   src.styling.clone(d),
			textStyle: src.textStyle,
			chars:     src.chars,
			font:      src.font,
			refs:      maps.Clone(src.refs),
		}
		out = t
	case *Shape:
		out = &Shape{
			base:     base{doc: d, id: id, name: src.name, typ: src.typ},
			geometry: src.geometry,
			styling:  src.styling.clone(d),
		}
	case *Instance:
		inst := &Instance{
			Frame: Frame{
				base:     base{doc: d, id: id, name: src.name, typ: host.NodeInstance},
				geometry: src.geometry,
				styling:  src.styling.clone(d),
			},
			main:   src.main,
			props:  maps.Clone(src.props),
			layout: src.layout,
			refs:   maps.Clone(src.refs),
		}
		d.materialize(src)
		for _, ch := range src.children {
			inst.children = append(inst.children, d.cloneNode(ch, id))
		}
		out = inst
	case *Frame:
		f := &Frame{
			base:     base{doc: d, id: id, name: src.name, typ: src.typ},
			geometry: src.geometry,
			styling:  src.styling.clone(d),
		}
		for _, ch := range src.children {
			f.children = append(f.children, d.cloneNode(ch, owner))
		}
		out = f
	default:
		return n
	}
	d.nodes[id] = out
	return out
}

// materialize fills an instance's children from its main component when
// none were given explicitly.
func (d *Doc) materialize(i *Instance) {
	if i.children != nil || i.main == nil {
		return
	}
	for _, ch := range i.main.children {
		i.children = append(i.children, d.cloneNode(ch, i.id))
	}
	i.applyTextProps()
}
