package propmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnana997/libswap/pkg/host"
)

// Host is the part of the document Describe reads.
type Host interface {
	NodeByID(ctx context.Context, id string) (host.Node, error)
	ImportComponentByKey(ctx context.Context, key string) (host.Node, error)
	ImportComponentSetByKey(ctx context.Context, key string) (host.ComponentSet, error)
}

// View is what the mapping UI shows for one source/target pair.
type View struct {
	SourceID            string                             `json:"sourceId"`
	SourceComponentName string                             `json:"sourceComponentName"`
	SourceDefinitions   map[string]host.PropertyDefinition `json:"sourceDefinitions"`
	SourceValues        map[string]host.PropertyValue      `json:"sourcePropertyValues"`
	TargetDefinitions   map[string]host.PropertyDefinition `json:"targetDefinitions"`
	// Warnings are lookups that failed; the view is still usable.
	Warnings []string `json:"warnings,omitempty"`
}

const defaultSourceName = "Source Component"

// Describe gathers the property definitions and current values of the
// source node and the definitions of the target component. The source may
// be an instance, a component or a component set.
func Describe(ctx context.Context, h Host, sourceID, targetKey string) *View {
	v := &View{
		SourceID:            sourceID,
		SourceComponentName: defaultSourceName,
		SourceDefinitions:   map[string]host.PropertyDefinition{},
		SourceValues:        map[string]host.PropertyValue{},
		TargetDefinitions:   map[string]host.PropertyDefinition{},
	}
	if n, err := h.NodeByID(ctx, sourceID); err != nil {
		v.warn("source %s: %v", sourceID, err)
	} else {
		v.describeSource(ctx, n)
		v.resolveSwapNames(ctx, h)
	}
	if targetKey != "" {
		defs, err := targetDefinitions(ctx, h, targetKey)
		if err != nil {
			v.warn("target %s: %v", targetKey, err)
		} else {
			v.TargetDefinitions = defs
		}
	}
	return v
}

func (v *View) warn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v *View) describeSource(ctx context.Context, n host.Node) {
	switch src := n.(type) {
	case host.Instance:
		v.SourceValues = src.Properties()
		main, err := src.MainComponent(ctx)
		if err != nil {
			v.warn("main component of %s: %v", src.ID(), err)
			return
		}
		v.SourceComponentName, v.SourceDefinitions = governing(main)
	case host.Component:
		v.SourceComponentName, v.SourceDefinitions = governing(src)
		v.SourceValues = componentValues(src, v.SourceDefinitions)
	case host.ComponentSet:
		v.SourceComponentName = src.Name()
		v.SourceDefinitions = src.PropertyDefinitions()
	default:
		v.warn("source %s is a %s", n.ID(), n.Type())
	}
}

// governing returns the name and definitions that apply to instances of c:
// the owning set's for a variant.
func governing(c host.Component) (string, map[string]host.PropertyDefinition) {
	if set := c.Set(); set != nil {
		return set.Name(), set.PropertyDefinitions()
	}
	return c.Name(), c.PropertyDefinitions()
}

// componentValues reconstructs property values for a component node, which
// carries variant properties but no instance values.
func componentValues(c host.Component, defs map[string]host.PropertyDefinition) map[string]host.PropertyValue {
	out := map[string]host.PropertyValue{}
	variant := c.VariantProperties()
	if len(variant) == 0 {
		for id, def := range defs {
			out[id] = host.PropertyValue{Type: def.Type, Value: def.DefaultValue}
		}
		return out
	}
	for name, value := range variant {
		for id, def := range defs {
			if id == name || strings.HasPrefix(id, name+"#") {
				out[id] = host.PropertyValue{Type: def.Type, Value: value}
				break
			}
		}
	}
	return out
}

// resolveSwapNames replaces instance-swap node ids with node names.
func (v *View) resolveSwapNames(ctx context.Context, h Host) {
	for id, pv := range v.SourceValues {
		if pv.Type != host.PropInstanceSwap {
			continue
		}
		nodeID, ok := pv.Value.(string)
		if !ok || nodeID == "" {
			continue
		}
		n, err := h.NodeByID(ctx, nodeID)
		if err != nil {
			continue
		}
		pv.Value = n.Name()
		v.SourceValues[id] = pv
	}
}

func targetDefinitions(ctx context.Context, h Host, key string) (map[string]host.PropertyDefinition, error) {
	n, err := h.ImportComponentByKey(ctx, key)
	if err != nil {
		set, setErr := h.ImportComponentSetByKey(ctx, key)
		if setErr != nil {
			return nil, fmt.Errorf("import component: %w", err)
		}
		return set.PropertyDefinitions(), nil
	}
	switch c := n.(type) {
	case host.Component:
		_, defs := governing(c)
		return defs, nil
	case host.ComponentSet:
		return c.PropertyDefinitions(), nil
	}
	return nil, fmt.Errorf("%s is a %s", key, n.Type())
}
