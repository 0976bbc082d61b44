// Package propmap carries component property values across a swap.
//
// Property ids have the form "Name#<suffix>" and the suffix is regenerated
// for every component, so values are correlated by base name when the
// exact id does not survive.
package propmap

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/gnana997/libswap/pkg/host"
)

// BaseName strips the "#suffix" disambiguator from a property id.
func BaseName(id string) string {
	base, _, _ := strings.Cut(id, "#")
	return base
}

// Captured holds values read from a source instance, keyed by the target
// property id they are destined for.
type Captured map[string]any

// Miss is a mapping entry whose source property was not found.
type Miss struct {
	Target string
	Source string
}

// ResolveSource reads the value of every mapped source property from props.
// mapping goes from target property id to source property id. A source id
// resolves by exact match, then by base name when it carries a suffix, then
// by plain base name.
func ResolveSource(props map[string]host.PropertyValue, mapping map[string]string) (Captured, []Miss) {
	out := Captured{}
	var misses []Miss
	for _, target := range slices.Sorted(maps.Keys(mapping)) {
		source := mapping[target]
		if source == "" {
			continue
		}
		v, ok := lookup(props, source)
		if !ok {
			misses = append(misses, Miss{Target: target, Source: source})
			continue
		}
		out[target] = v
	}
	return out, misses
}

func lookup(props map[string]host.PropertyValue, id string) (any, bool) {
	if pv, ok := props[id]; ok {
		return pv.Value, true
	}
	base := BaseName(id)
	for _, name := range slices.Sorted(maps.Keys(props)) {
		if BaseName(name) == base {
			return props[name].Value, true
		}
	}
	return nil, false
}

// ByBase indexes property ids by base name. When two ids share a base name
// the lexically last one wins.
func ByBase[V any](props map[string]V) map[string]string {
	out := make(map[string]string, len(props))
	for _, id := range slices.Sorted(maps.Keys(props)) {
		out[BaseName(id)] = id
	}
	return out
}

// ResolveTarget re-keys captured values onto the property ids of a swapped
// instance: exact id when still present, else the id with the same base
// name. Values with no counterpart are returned as unresolved target ids.
func ResolveTarget(props map[string]host.PropertyValue, captured Captured) (map[string]any, []string) {
	out := map[string]any{}
	var unresolved []string
	bases := ByBase(props)
	for _, target := range slices.Sorted(maps.Keys(captured)) {
		if _, ok := props[target]; ok {
			out[target] = captured[target]
			continue
		}
		if id, ok := bases[BaseName(target)]; ok {
			out[id] = captured[target]
			continue
		}
		unresolved = append(unresolved, target)
	}
	return out, unresolved
}

// VariantAssertions returns the variant-defining values of c keyed by the
// instance property ids in props. It is empty for standalone components.
func VariantAssertions(c host.Component, props map[string]host.PropertyValue) map[string]any {
	out := map[string]any{}
	if c == nil || c.Set() == nil {
		return out
	}
	bases := ByBase(props)
	for name, value := range c.VariantProperties() {
		if id, ok := bases[name]; ok {
			out[id] = value
		}
	}
	return out
}

// Mismatch is a property that did not take the value it was set to.
type Mismatch struct {
	ID   string `json:"id"`
	Want any    `json:"want"`
	Got  any    `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %v, got %v", m.ID, m.Want, m.Got)
}

// Verify compares want against the values an instance reports.
func Verify(props map[string]host.PropertyValue, want map[string]any) []Mismatch {
	var out []Mismatch
	for _, id := range slices.Sorted(maps.Keys(want)) {
		pv, ok := props[id]
		if !ok {
			out = append(out, Mismatch{ID: id, Want: want[id]})
			continue
		}
		if !reflect.DeepEqual(pv.Value, want[id]) {
			out = append(out, Mismatch{ID: id, Want: want[id], Got: pv.Value})
		}
	}
	return out
}
