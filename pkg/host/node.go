// Package host describes the document runtime the swap engine drives.
//
// The runtime is modelled as a set of small capability interfaces. Code that
// needs a capability asserts for it (a node with a fill style implements
// FillStyled, an instance implements Instance) instead of probing fields.
package host

import (
	"context"
	"errors"
)

// Errors returned by host implementations.
var (
	// ErrNotFound: the requested node, style, variable or component does not exist.
	ErrNotFound = errors.New("host: not found")
	// ErrImportRejected: a cross-document import failed, usually because the
	// source library is not enabled for the current document.
	ErrImportRejected = errors.New("host: import rejected")
	// ErrFontNotLoaded: text was edited before its font was loaded.
	ErrFontNotLoaded = errors.New("host: font not loaded")
)

// NodeType discriminates scene-graph nodes.
type NodeType string

const (
	NodePage         NodeType = "PAGE"
	NodeFrame        NodeType = "FRAME"
	NodeGroup        NodeType = "GROUP"
	NodeInstance     NodeType = "INSTANCE"
	NodeText         NodeType = "TEXT"
	NodeRectangle    NodeType = "RECTANGLE"
	NodeEllipse      NodeType = "ELLIPSE"
	NodeVector       NodeType = "VECTOR"
	NodeComponent    NodeType = "COMPONENT"
	NodeComponentSet NodeType = "COMPONENT_SET"
)

// Node is the common surface of every scene-graph node.
type Node interface {
	ID() string
	Name() string
	Type() NodeType
}

// Container is a node with ordered children.
type Container interface {
	Node
	Children() []Node
}

// FillStyled nodes can carry a fill (paint) style binding.
type FillStyled interface {
	Node
	FillStyleID() string
	SetFillStyleID(ctx context.Context, id string) error
}

// StrokeStyled nodes can carry a stroke (paint) style binding.
type StrokeStyled interface {
	Node
	StrokeStyleID() string
	SetStrokeStyleID(ctx context.Context, id string) error
}

// TextStyled nodes can carry a text style binding.
type TextStyled interface {
	Node
	TextStyleID() string
	SetTextStyleID(ctx context.Context, id string) error
}

// EffectStyled nodes can carry an effect style binding.
type EffectStyled interface {
	Node
	EffectStyleID() string
}

// GridStyled frames can carry a layout grid style binding.
type GridStyled interface {
	Node
	GridStyleID() string
}

// Painted nodes expose their paint lists. Variable bindings live on the
// individual paints (Paint.BoundVariableID).
type Painted interface {
	Node
	Paints(field PaintField) []Paint
	SetPaints(field PaintField, paints []Paint) error
}

// Transformable nodes have a position and rotation.
type Transformable interface {
	Node
	Transform() Transform
	SetTransform(t Transform) error
}

// Resizable nodes have a size that can be changed with constraints applied.
type Resizable interface {
	Node
	Size() (width, height float64)
	Resize(width, height float64) error
}

// FreeResizer nodes can also be resized ignoring constraints.
type FreeResizer interface {
	ResizeWithoutConstraints(width, height float64) error
}

// PropertyReferencer nodes have fields driven by component properties.
// The map goes from field ("characters", "visible", "mainComponent", or a
// nested property base name) to the driving property id.
type PropertyReferencer interface {
	PropertyReferences() map[string]string
}

// Text is a text node.
type Text interface {
	Node
	PropertyReferencer
	Characters() string
	SetCharacters(s string) error
	Font() Font
}

// Instance is a live placed copy of a component.
type Instance interface {
	Container
	Transformable
	Resizable
	PropertyReferencer

	// MainComponent resolves the component this instance is a copy of.
	// It fails for orphaned instances.
	MainComponent(ctx context.Context) (Component, error)
	// SwapComponent replaces the main component, keeping the instance identity.
	SwapComponent(ctx context.Context, c Component) error
	// Properties returns the current component property values keyed by
	// property id ("Label#12:0").
	Properties() map[string]PropertyValue
	// SetProperties applies a batch of property values keyed by property id.
	SetProperties(values map[string]any) error
	// RemoveOverrides resets the instance to its main component's defaults.
	RemoveOverrides() error
	Layout() Layout
	SetLayout(l Layout) error
}

// Component is a reusable component, standalone or one variant of a set.
type Component interface {
	Container
	Key() string
	Remote() bool
	// Set returns the owning variant set, or nil for a standalone component.
	Set() ComponentSet
	// VariantProperties returns the variant-defining values ("Shape": "Square").
	VariantProperties() map[string]string
	PropertyDefinitions() map[string]PropertyDefinition
}

// ComponentSet groups variants of one component family.
type ComponentSet interface {
	Container
	Key() string
	Variants() []Component
	// DefaultVariant may return nil.
	DefaultVariant() Component
	PropertyDefinitions() map[string]PropertyDefinition
}
