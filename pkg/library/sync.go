package library

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gnana997/libswap/pkg/host"
)

// PluginDataFileID is the document plugin-data key holding the stable
// library id.
const PluginDataFileID = "swap_library_file_id"

// ThumbnailScale is the export scale of library thumbnails.
const ThumbnailScale = 0.5

// SyncReport describes one sync.
type SyncReport struct {
	Library Library
	// Replaced is true when an existing registry entry was updated.
	Replaced bool
	// ThumbnailSource names the strategy that produced the thumbnail:
	// "official", "selection", "cover", "first-frame", or "" for none.
	ThumbnailSource string
	// Warnings are per-category enumeration failures. The sync still
	// completes with partial data.
	Warnings []error
	SyncTimeMs int64
}

// Syncer reads a document's own assets into a Library.
type Syncer struct {
	log *slog.Logger
	now func() time.Time
}

// NewSyncer creates a Syncer. A nil logger uses slog.Default().
func NewSyncer(log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{log: log, now: time.Now}
}

// NewLocalID generates an identifier for an unpublished document.
func NewLocalID(now time.Time) string {
	return fmt.Sprintf("local_%d_%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
}

// ResolveID returns the stable id of doc without assigning one: stored
// plugin data, then the publish key, then the id of a Local library with the
// same name (entries synced before ids were persisted).
func ResolveID(doc host.Document, reg *Registry) string {
	if id := doc.PluginData(PluginDataFileID); id != "" {
		return id
	}
	if key := doc.FileKey(); key != "" {
		return key
	}
	for _, l := range reg.libs {
		if l.Name == doc.Name() && l.Kind == KindLocal {
			return l.ID
		}
	}
	return ""
}

// CurrentFileStatus reports the document name and whether it is already
// registered.
func CurrentFileStatus(doc host.Document, reg *Registry) (string, bool) {
	id := ResolveID(doc, reg)
	if id == "" {
		return doc.Name(), false
	}
	_, ok := reg.ByID(id)
	return doc.Name(), ok
}

func (s *Syncer) stableID(doc host.Document, reg *Registry) (string, error) {
	if id := doc.PluginData(PluginDataFileID); id != "" {
		return id, nil
	}
	id := ResolveID(doc, reg)
	if id == "" {
		id = NewLocalID(s.now())
	}
	if err := doc.SetPluginData(PluginDataFileID, id); err != nil {
		return "", fmt.Errorf("failed to persist library id: %w", err)
	}
	return id, nil
}

// Sync enumerates the document's variables, styles and components, captures
// a thumbnail and upserts the result into reg by id. Category failures are
// recorded as warnings; only a failure to establish the library id aborts.
func (s *Syncer) Sync(ctx context.Context, doc host.Document, reg *Registry) (*SyncReport, error) {
	start := time.Now()
	id, err := s.stableID(doc, reg)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{}
	lib := Library{
		Name:         doc.Name(),
		ID:           id,
		Key:          id,
		Kind:         KindLocal,
		LastSyncedAt: s.now().UTC(),
		Components:   map[string]string{},
		Styles:       map[string]string{},
		Variables:    map[string]string{},
	}

	vars, err := doc.LocalVariables(ctx)
	if err != nil {
		report.warn(s.log, "variables", err)
	}
	for _, v := range vars {
		if !v.Remote {
			lib.Variables[v.Name] = v.Key
		}
	}

	for _, kind := range []host.StyleKind{host.StylePaint, host.StyleText, host.StyleEffect, host.StyleGrid} {
		styles, err := doc.LocalStyles(ctx, kind)
		if err != nil {
			report.warn(s.log, "styles "+strings.ToLower(string(kind)), err)
			continue
		}
		for _, st := range styles {
			lib.Styles[st.Name] = st.Key
		}
	}

	if err := s.syncComponents(ctx, doc, lib.Components); err != nil {
		report.warn(s.log, "components", err)
	}

	thumb, source, err := s.thumbnail(ctx, doc)
	if err != nil {
		report.warn(s.log, "thumbnail", err)
	}
	lib.Thumbnail = thumb
	report.ThumbnailSource = source

	report.Replaced = reg.Upsert(lib)
	report.Library = lib.Clone()
	report.SyncTimeMs = time.Since(start).Milliseconds()
	s.log.Info("library synced",
		"name", lib.Name,
		"id", lib.ID,
		"components", len(lib.Components),
		"styles", len(lib.Styles),
		"variables", len(lib.Variables),
		"thumbnail", source,
		"replaced", report.Replaced,
		"warnings", len(report.Warnings),
		"ms", report.SyncTimeMs,
	)
	return report, nil
}

func (r *SyncReport) warn(log *slog.Logger, category string, err error) {
	err = fmt.Errorf("sync %s: %w", category, err)
	r.Warnings = append(r.Warnings, err)
	log.Warn("sync category failed", "category", category, "error", err)
}

// syncComponents indexes components and component sets. Variants are keyed
// "<set>/<variant>".
func (s *Syncer) syncComponents(ctx context.Context, doc host.Document, out map[string]string) error {
	if err := doc.LoadAllPages(ctx); err != nil {
		return fmt.Errorf("load pages: %w", err)
	}
	nodes, err := doc.FindComponents(ctx)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		switch c := n.(type) {
		case host.Component:
			name := c.Name()
			if set := c.Set(); set != nil {
				name = set.Name() + "/" + name
			}
			out[name] = c.Key()
		case host.ComponentSet:
			out[c.Name()] = c.Key()
		}
	}
	return nil
}

// thumbnail picks a node in priority order: the official thumbnail, the
// single selected frame, the first frame of a page named like "cover" or
// "thumbnail", the first frame on the current page.
func (s *Syncer) thumbnail(ctx context.Context, doc host.Document) (string, string, error) {
	node, source := s.thumbnailNode(ctx, doc)
	if node == nil {
		return "", "", nil
	}
	png, err := doc.ExportPNG(ctx, node, ThumbnailScale)
	if err != nil {
		return "", "", fmt.Errorf("export %s: %w", node.ID(), err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), source, nil
}

func (s *Syncer) thumbnailNode(ctx context.Context, doc host.Document) (host.Node, string) {
	if n, err := doc.OfficialThumbnail(ctx); err != nil {
		s.log.Debug("official thumbnail unavailable", "error", err)
	} else if n != nil {
		return n, "official"
	}
	if sel := doc.Selection(); len(sel) == 1 && sel[0].Type() == host.NodeFrame {
		return sel[0], "selection"
	}
	for _, p := range doc.Pages() {
		name := strings.ToLower(p.Name())
		if !strings.Contains(name, "cover") && !strings.Contains(name, "thumbnail") {
			continue
		}
		if f := firstFrame(p); f != nil {
			return f, "cover"
		}
		break
	}
	if page := doc.CurrentPage(); page != nil {
		if f := firstFrame(page); f != nil {
			return f, "first-frame"
		}
	}
	return nil, ""
}

func firstFrame(c host.Container) host.Node {
	for _, ch := range c.Children() {
		if ch.Type() == host.NodeFrame {
			return ch
		}
	}
	return nil
}
