package host

import (
	"fmt"
	"math"
)

// PaintField selects a paint list on a Painted node.
type PaintField string

const (
	FieldFills   PaintField = "fills"
	FieldStrokes PaintField = "strokes"
)

// PaintType is the kind of a paint entry.
type PaintType string

const (
	PaintSolid    PaintType = "SOLID"
	PaintGradient PaintType = "GRADIENT_LINEAR"
	PaintImage    PaintType = "IMAGE"
)

// RGB is a colour with channels in [0, 1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Hex renders the colour as #RRGGBB, each channel rounded to the nearest
// 0-255 integer.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

// Paint is one entry of a fill or stroke list.
type Paint struct {
	Type  PaintType `json:"type"`
	Color RGB       `json:"color"`
	// BoundVariableID is set when the paint colour is driven by a variable.
	BoundVariableID string `json:"boundVariableId,omitempty"`
}

// StyleKind classifies styles.
type StyleKind string

const (
	StylePaint  StyleKind = "PAINT"
	StyleText   StyleKind = "TEXT"
	StyleEffect StyleKind = "EFFECT"
	StyleGrid   StyleKind = "GRID"
)

// Style is a named reusable property bundle.
type Style struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Kind       StyleKind `json:"kind"`
	Remote     bool      `json:"remote,omitempty"`
	Paints     []Paint   `json:"paints,omitempty"`
	FontSize   float64   `json:"fontSize,omitempty"`
	FontFamily string    `json:"fontFamily,omitempty"`
}

// FirstSolid returns the first solid paint of a paint style.
func (s Style) FirstSolid() (Paint, bool) {
	for _, p := range s.Paints {
		if p.Type == PaintSolid {
			return p, true
		}
	}
	return Paint{}, false
}

// VariableType is the resolved type of a variable.
type VariableType string

const (
	VariableColor  VariableType = "COLOR"
	VariableFloat  VariableType = "FLOAT"
	VariableString VariableType = "STRING"
	VariableBool   VariableType = "BOOLEAN"
)

// ModeValue is the value of a variable in one mode.
type ModeValue struct {
	Mode  string  `json:"mode"`
	Color *RGB    `json:"color,omitempty"`
	Float float64 `json:"float,omitempty"`
	Text  string  `json:"text,omitempty"`
}

// Variable is a named, mode-aware design value.
type Variable struct {
	ID           string       `json:"id"`
	Key          string       `json:"key"`
	Name         string       `json:"name"`
	CollectionID string       `json:"collectionId"`
	Type         VariableType `json:"type"`
	Remote       bool         `json:"remote,omitempty"`
	// Values are ordered by mode; the first entry is the default mode.
	Values []ModeValue `json:"values,omitempty"`
}

// FirstColor returns the colour of the first mode, if the variable is a colour.
func (v Variable) FirstColor() (RGB, bool) {
	if v.Type != VariableColor || len(v.Values) == 0 || v.Values[0].Color == nil {
		return RGB{}, false
	}
	return *v.Values[0].Color, true
}

// VariableCollection groups variables.
type VariableCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Font identifies a font face.
type Font struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

// Transform is the part of a node's geometry a swap must preserve.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// PropertyType is the type of a component property.
type PropertyType string

const (
	PropBoolean      PropertyType = "BOOLEAN"
	PropText         PropertyType = "TEXT"
	PropInstanceSwap PropertyType = "INSTANCE_SWAP"
	PropVariant      PropertyType = "VARIANT"
)

// PropertyValue is the current value of one component property on an instance.
type PropertyValue struct {
	Type  PropertyType `json:"type"`
	Value any          `json:"value"`
}

// PropertyDefinition describes one component property.
type PropertyDefinition struct {
	Type           PropertyType `json:"type"`
	DefaultValue   any          `json:"defaultValue"`
	VariantOptions []string     `json:"variantOptions,omitempty"`
}
