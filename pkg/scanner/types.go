// Package scanner inventories which registered library the component
// instances and style or variable bindings under a selection belong to.
package scanner

import (
	"errors"

	"github.com/gnana997/libswap/pkg/host"
)

var (
	// ErrEmptySelection: nothing was selected to scan.
	ErrEmptySelection = errors.New("scanner: please select at least one frame to scan")
	// ErrNoLibrary: the scan found nothing and no library is registered.
	ErrNoLibrary = errors.New("scanner: no library connected")
)

// TokenKind classifies a matched style or variable.
type TokenKind string

const (
	TokenColor      TokenKind = "color"
	TokenTypography TokenKind = "typography"
	TokenSpacing    TokenKind = "spacing"
	TokenEffect     TokenKind = "effect"
)

// ComponentMatch is one instance attributed to a library.
type ComponentMatch struct {
	LiveNodeID      string `json:"instanceId"`
	MainComponentID string `json:"id"`
	// VariantName is the matched table name, used when requesting a swap.
	VariantName string `json:"name"`
	// DisplayName is the variant set name, or VariantName.
	DisplayName   string  `json:"displayName"`
	Library       string  `json:"library"`
	IsRemote      bool    `json:"remote"`
	LibraryFileID string  `json:"libraryFileId,omitempty"`
	Score         float64 `json:"score"`
}

// TokenMatch is one style or variable attributed to a library. A scan
// reports each asset once, however many nodes use it.
type TokenMatch struct {
	LiveAssetID   string    `json:"id"`
	Name          string    `json:"name"`
	Kind          TokenKind `json:"type"`
	ResolvedValue string    `json:"value"`
	Library       string    `json:"library,omitempty"`
	// Variable is true for variable bindings, false for styles.
	Variable bool `json:"variable,omitempty"`
}

// LibrarySummary counts the matches attributed to one library.
type LibrarySummary struct {
	Name           string `json:"name"`
	FileID         string `json:"fileId,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	ComponentCount int    `json:"componentCount"`
	TokenCount     int    `json:"tokenCount"`
}

// Result is the output of one scan.
type Result struct {
	Components []ComponentMatch `json:"components"`
	Tokens     []TokenMatch     `json:"tokens"`
	Libraries  []LibrarySummary `json:"libraries"`
	// Roots are the frames that were scanned.
	Roots []host.Node `json:"-"`
	Stats Stats       `json:"-"`
}

// Stats tracks scan metrics.
type Stats struct {
	RootsScanned      int
	RootsSkipped      int
	NodesVisited      int
	InstancesSeen     int
	OrphanedInstances int
	// Dropped counts matches against libraries that are not registered.
	ComponentsDropped int
	TokensDropped     int
	PrivateSkipped    int
	ScanTimeMs        int64
	FilterTimeMs      int64
	TotalTimeMs       int64
}
