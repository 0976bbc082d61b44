package memhost

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gnana997/libswap/pkg/host"
)

// DocSpec is the JSON fixture format of a document.
type DocSpec struct {
	Name       string            `json:"name"`
	FileKey    string            `json:"fileKey,omitempty"`
	PluginData map[string]string `json:"pluginData,omitempty"`
	// Thumbnail is the id of the official thumbnail node.
	Thumbnail   string                    `json:"thumbnail,omitempty"`
	Collections []host.VariableCollection `json:"collections,omitempty"`
	// Styles and Variables are present in the document (local or already
	// imported); the Published lists are importable by key.
	Styles             []host.Style    `json:"styles,omitempty"`
	Variables          []host.Variable `json:"variables,omitempty"`
	PublishedStyles    []host.Style    `json:"publishedStyles,omitempty"`
	PublishedVariables []host.Variable `json:"publishedVariables,omitempty"`
	// Library holds remote components and component sets.
	Library     []NodeSpec  `json:"library,omitempty"`
	Pages       []PageSpec  `json:"pages"`
	CurrentPage int         `json:"currentPage,omitempty"`
	Selection   []string    `json:"selection,omitempty"`
	Rejected    []string    `json:"rejected,omitempty"`
	BrokenFonts []host.Font `json:"brokenFonts,omitempty"`
}

// PageSpec describes a page.
type PageSpec struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Children []NodeSpec `json:"children,omitempty"`
}

// NodeSpec describes any scene node. Fields that do not apply to the
// node's type are ignored.
type NodeSpec struct {
	Type     host.NodeType `json:"type"`
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	X        float64       `json:"x,omitempty"`
	Y        float64       `json:"y,omitempty"`
	Width    float64       `json:"width,omitempty"`
	Height   float64       `json:"height,omitempty"`
	Rotation float64       `json:"rotation,omitempty"`
	// LockResize makes constrained resizes fail.
	LockResize bool `json:"lockResize,omitempty"`

	FillStyleID   string       `json:"fillStyleId,omitempty"`
	StrokeStyleID string       `json:"strokeStyleId,omitempty"`
	EffectStyleID string       `json:"effectStyleId,omitempty"`
	TextStyleID   string       `json:"textStyleId,omitempty"`
	GridStyleID   string       `json:"gridStyleId,omitempty"`
	Fills         []host.Paint `json:"fills,omitempty"`
	Strokes       []host.Paint `json:"strokes,omitempty"`

	Characters string            `json:"characters,omitempty"`
	Font       host.Font         `json:"font,omitempty"`
	Refs       map[string]string `json:"refs,omitempty"`

	Key               string                             `json:"key,omitempty"`
	Remote            bool                               `json:"remote,omitempty"`
	VariantProperties map[string]string                  `json:"variantProperties,omitempty"`
	Definitions       map[string]host.PropertyDefinition `json:"definitions,omitempty"`
	DefaultVariant    string                             `json:"defaultVariant,omitempty"`

	// Main is the main component id of an instance.
	Main       string                        `json:"main,omitempty"`
	Properties map[string]host.PropertyValue `json:"properties,omitempty"`
	Layout     *host.Layout                  `json:"layout,omitempty"`

	Children []NodeSpec `json:"children,omitempty"`
}

// Load decodes a JSON fixture.
func Load(data []byte) (*Doc, error) {
	var spec DocSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("memhost: decode document: %w", err)
	}
	return New(spec)
}

// New builds a document from a spec.
func New(spec DocSpec) (*Doc, error) {
	d := &Doc{
		name:        spec.Name,
		fileKey:     spec.FileKey,
		pluginData:  map[string]string{},
		thumbnail:   spec.Thumbnail,
		nodes:       map[string]host.Node{},
		published:   map[string]host.Node{},
		styles:      map[string]host.Style{},
		pubStyles:   map[string]host.Style{},
		vars:        map[string]host.Variable{},
		pubVars:     map[string]host.Variable{},
		collections: map[string]host.VariableCollection{},
		rejected:    map[string]bool{},
		brokenFonts: map[host.Font]bool{},
		loadedFonts: map[host.Font]bool{},
		Imports:     map[string]int{},
	}
	maps.Copy(d.pluginData, spec.PluginData)
	for _, c := range spec.Collections {
		d.collections[c.ID] = c
	}
	for _, s := range spec.Styles {
		d.addStyle(s)
	}
	for _, s := range spec.PublishedStyles {
		d.pubStyles[s.Key] = s
	}
	for _, v := range spec.Variables {
		d.addVariable(v)
	}
	for _, v := range spec.PublishedVariables {
		d.pubVars[v.Key] = v
	}
	for _, k := range spec.Rejected {
		d.rejected[k] = true
	}
	for _, f := range spec.BrokenFonts {
		d.brokenFonts[f] = true
	}

	b := &builder{doc: d, mains: map[*Instance]string{}}
	for _, ns := range spec.Library {
		n, err := b.node(ns)
		if err != nil {
			return nil, err
		}
		switch c := n.(type) {
		case *Component:
			c.remote = true
			d.published[c.key] = c
		case *ComponentSet:
			c.remote = true
			d.published[c.key] = c
			for _, v := range c.Variants() {
				vc := v.(*Component)
				vc.remote = true
				d.published[vc.key] = vc
			}
		default:
			return nil, fmt.Errorf("memhost: library node %s is %s, want a component", ns.ID, ns.Type)
		}
	}
	for _, ps := range spec.Pages {
		p := &Page{base: base{doc: d, id: ps.ID, name: ps.Name, typ: host.NodePage}}
		for _, cs := range ps.Children {
			n, err := b.node(cs)
			if err != nil {
				return nil, err
			}
			p.children = append(p.children, n)
		}
		d.nodes[p.id] = p
		d.pages = append(d.pages, p)
	}
	if spec.CurrentPage < 0 || (len(d.pages) > 0 && spec.CurrentPage >= len(d.pages)) {
		return nil, fmt.Errorf("memhost: current page %d out of range", spec.CurrentPage)
	}
	d.current = spec.CurrentPage
	if err := b.link(); err != nil {
		return nil, err
	}
	d.selection = slices.Clone(spec.Selection)
	return d, nil
}

type builder struct {
	doc   *Doc
	mains map[*Instance]string
	order []*Instance
}

func (b *builder) node(ns NodeSpec) (host.Node, error) {
	if ns.ID == "" {
		return nil, fmt.Errorf("memhost: %s node %q has no id", ns.Type, ns.Name)
	}
	if _, dup := b.doc.nodes[ns.ID]; dup {
		return nil, fmt.Errorf("memhost: duplicate node id %s", ns.ID)
	}
	d := b.doc
	bs := base{doc: d, id: ns.ID, name: ns.Name, typ: ns.Type}
	geo := geometry{x: ns.X, y: ns.Y, rotation: ns.Rotation, width: ns.Width, height: ns.Height, lockResize: ns.LockResize}
	sty := styling{
		d:           d,
		fillStyle:   ns.FillStyleID,
		strokeStyle: ns.StrokeStyleID,
		effectStyle: ns.EffectStyleID,
		gridStyle:   ns.GridStyleID,
		fills:       slices.Clone(ns.Fills),
		strokes:     slices.Clone(ns.Strokes),
	}
	if ns.FillStyleID != "" && len(ns.Fills) == 0 {
		if s, ok := d.styles[ns.FillStyleID]; ok {
			sty.fills = slices.Clone(s.Paints)
		}
	}

	var out host.Node
	switch ns.Type {
	case host.NodeText:
		out = &Text{
			base: bs, geometry: geo, styling: sty,
			textStyle: ns.TextStyleID,
			chars:     ns.Characters,
			font:      ns.Font,
			refs:      maps.Clone(ns.Refs),
		}
	case host.NodeRectangle, host.NodeEllipse, host.NodeVector:
		out = &Shape{base: bs, geometry: geo, styling: sty}
	case host.NodeFrame, host.NodeGroup:
		f := &Frame{base: bs, geometry: geo, styling: sty}
		kids, err := b.children(ns)
		if err != nil {
			return nil, err
		}
		f.children = kids
		out = f
	case host.NodeComponent:
		c := &Component{
			Frame:        Frame{base: bs, geometry: geo, styling: sty},
			key:          ns.Key,
			remote:       ns.Remote,
			variantProps: maps.Clone(ns.VariantProperties),
			defs:         maps.Clone(ns.Definitions),
		}
		kids, err := b.children(ns)
		if err != nil {
			return nil, err
		}
		c.children = kids
		out = c
	case host.NodeComponentSet:
		s := &ComponentSet{
			Frame:          Frame{base: bs, geometry: geo, styling: sty},
			key:            ns.Key,
			remote:         ns.Remote,
			defs:           maps.Clone(ns.Definitions),
			defaultVariant: ns.DefaultVariant,
		}
		kids, err := b.children(ns)
		if err != nil {
			return nil, err
		}
		for _, k := range kids {
			v, ok := k.(*Component)
			if !ok {
				return nil, fmt.Errorf("memhost: component set %s holds %s, want variants", ns.ID, k.Type())
			}
			v.set = s
			v.remote = v.remote || s.remote
		}
		s.children = kids
		out = s
	case host.NodeInstance:
		inst := &Instance{
			Frame:  Frame{base: bs, geometry: geo, styling: sty},
			props:  maps.Clone(ns.Properties),
			layout: host.DefaultLayout(),
			refs:   maps.Clone(ns.Refs),
		}
		if ns.Layout != nil {
			inst.layout = *ns.Layout
		}
		if len(ns.Children) > 0 {
			kids, err := b.children(ns)
			if err != nil {
				return nil, err
			}
			inst.children = kids
		}
		b.mains[inst] = ns.Main
		b.order = append(b.order, inst)
		out = inst
	default:
		return nil, fmt.Errorf("memhost: node %s: unsupported type %q", ns.ID, ns.Type)
	}
	d.nodes[ns.ID] = out
	return out, nil
}

func (b *builder) children(ns NodeSpec) ([]host.Node, error) {
	var out []host.Node
	for _, cs := range ns.Children {
		n, err := b.node(cs)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// link resolves instance main components, then fills default property
// values and template children.
func (b *builder) link() error {
	var errs []error
	for _, inst := range b.order {
		id := b.mains[inst]
		if id == "" {
			continue // orphaned
		}
		c, ok := b.doc.nodes[id].(*Component)
		if !ok {
			errs = append(errs, fmt.Errorf("memhost: instance %s: main %s is not a component", inst.id, id))
			continue
		}
		inst.main = c
		if inst.props == nil {
			inst.props = defaultProps(c)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, inst := range b.order {
		b.doc.materialize(inst)
	}
	return nil
}
