package swap

import (
	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/propmap"
)

// SlotKind says what a traversal slot holds.
type SlotKind uint8

const (
	SlotText SlotKind = iota
	SlotInstance
)

// SlotKey addresses the Index-th node of one kind inside an instance, in
// depth-first order. Node ids do not survive a swap, so captured state is
// correlated by slot. When the source and target trees differ in shape the
// alignment is best effort: slot N of the new tree gets whatever slot N of
// the old tree held.
type SlotKey struct {
	Kind  SlotKind
	Index int
}

type slot struct {
	key  SlotKey
	node host.Node
}

// slots enumerates the text nodes and nested instances below root. The
// root itself is not a slot.
func slots(root host.Node) []slot {
	var out []slot
	counts := map[SlotKind]int{}
	for _, n := range host.Descendants(root) {
		var kind SlotKind
		switch n.(type) {
		case host.Text:
			kind = SlotText
		case host.Instance:
			kind = SlotInstance
		default:
			continue
		}
		out = append(out, slot{key: SlotKey{Kind: kind, Index: counts[kind]}, node: n})
		counts[kind]++
	}
	return out
}

type textState struct {
	chars string
	font  host.Font
}

type nestedState struct {
	// overrides are property values keyed by base name.
	overrides map[string]any
	layout    host.Layout
	width     float64
	height    float64
}

// capture is everything a swap destroys that is restored afterwards.
type capture struct {
	transform host.Transform
	texts     map[SlotKey]textState
	nested    map[SlotKey]nestedState
}

func captureInstance(inst host.Instance) capture {
	c := capture{
		transform: inst.Transform(),
		texts:     map[SlotKey]textState{},
		nested:    map[SlotKey]nestedState{},
	}
	for _, s := range slots(inst) {
		switch n := s.node.(type) {
		case host.Text:
			c.texts[s.key] = textState{chars: n.Characters(), font: n.Font()}
		case host.Instance:
			st := nestedState{overrides: map[string]any{}, layout: n.Layout().NonDefault()}
			for id, pv := range n.Properties() {
				st.overrides[propmap.BaseName(id)] = pv.Value
			}
			st.width, st.height = n.Size()
			c.nested[s.key] = st
		}
	}
	return c
}
