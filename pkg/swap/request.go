// Package swap replaces component instances and style or variable bindings
// from one library with their equivalents from another.
package swap

import (
	"errors"
	"strings"
)

var (
	// ErrNoMapping: a name has no key in the target library.
	ErrNoMapping = errors.New("swap: no mapping")
	// ErrImportFailed: no candidate key could be imported.
	ErrImportFailed = errors.New("swap: import failed")
)

// ComponentRequest asks for every instance of one component to be swapped.
type ComponentRequest struct {
	// ComponentName is the matched name from the scan.
	ComponentName string `json:"name"`
	// TargetKey, when set, bypasses target name lookup.
	TargetKey string `json:"targetKey,omitempty"`
	// TargetName is looked up instead of ComponentName in the target library.
	TargetName string `json:"targetName,omitempty"`
	ParentName string `json:"parentName,omitempty"`
	// PropertyMapping goes from target property id to source property id.
	PropertyMapping        map[string]string `json:"propertyMapping,omitempty"`
	PreserveStyleOverrides bool              `json:"preserveStyleOverrides,omitempty"`
}

// lookupName is the name resolved in the target library.
func (c ComponentRequest) lookupName() string {
	if c.TargetName != "" {
		return c.TargetName
	}
	return c.ComponentName
}

// parent is the variant set name: ParentName, else the prefix of a
// namespaced component name.
func (c ComponentRequest) parent() string {
	if c.ParentName != "" {
		return c.ParentName
	}
	return prefix(c.ComponentName)
}

// prefix returns the part of name before the first '/', or "" when name is
// not namespaced.
func prefix(name string) string {
	p, _, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	return p
}

// variantSuffix returns the last '/'-separated segment of name.
func variantSuffix(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}

// StyleRequest asks for every binding of one style or variable name to be
// swapped.
type StyleRequest struct {
	Name string `json:"name"`
}

// Request is one swap batch.
type Request struct {
	Components    []ComponentRequest `json:"components"`
	Styles        []StyleRequest     `json:"styles"`
	SourceLibrary string             `json:"sourceLibrary"`
	TargetLibrary string             `json:"targetLibrary"`
}
