package host

import "context"

// Scene gives access to the document tree.
type Scene interface {
	// Name is the document's display name.
	Name() string
	Pages() []Container
	CurrentPage() Container
	Selection() []Node
	NodeByID(ctx context.Context, id string) (Node, error)
	// LoadAllPages forces lazily loaded pages into memory. Enumeration before
	// this call may under-count.
	LoadAllPages(ctx context.Context) error
	// FindComponents returns every component and component set on every page.
	FindComponents(ctx context.Context) ([]Node, error)
}

// Assets resolves styles and variables available to the document.
type Assets interface {
	StyleByID(ctx context.Context, id string) (Style, error)
	LocalStyles(ctx context.Context, kind StyleKind) ([]Style, error)
	VariableByID(ctx context.Context, id string) (Variable, error)
	// LocalVariables includes remote variables already imported.
	LocalVariables(ctx context.Context) ([]Variable, error)
	VariableCollection(ctx context.Context, id string) (VariableCollection, error)
}

// Importer imports published assets by cross-document key. Every method may
// fail with ErrImportRejected when the owning library is not enabled.
type Importer interface {
	// ImportComponentByKey returns a Component or a ComponentSet.
	ImportComponentByKey(ctx context.Context, key string) (Node, error)
	ImportComponentSetByKey(ctx context.Context, key string) (ComponentSet, error)
	ImportStyleByKey(ctx context.Context, key string) (Style, error)
	ImportVariableByKey(ctx context.Context, key string) (Variable, error)
}

// Fonts loads font faces before text edits.
type Fonts interface {
	LoadFont(ctx context.Context, f Font) error
}

// Exporter renders thumbnails.
type Exporter interface {
	// OfficialThumbnail returns the document's designated thumbnail node, or
	// nil when none is set.
	OfficialThumbnail(ctx context.Context) (Node, error)
	ExportPNG(ctx context.Context, n Node, scale float64) ([]byte, error)
}

// Identity exposes document identifiers and document-scoped plugin data.
type Identity interface {
	// FileKey is the network publish identifier; empty for unpublished documents.
	FileKey() string
	PluginData(key string) string
	SetPluginData(key, value string) error
}

// Binder binds variables to paints.
type Binder interface {
	BindPaintVariable(p Paint, v Variable) (Paint, error)
}

// Document is the full host surface the engine consumes.
type Document interface {
	Scene
	Assets
	Importer
	Fonts
	Exporter
	Identity
	Binder
}

// Notifier shows fire-and-forget toasts to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }
