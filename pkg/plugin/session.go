// Package plugin is the command surface of the swap tool: a single session
// that owns the library registry and answers the UI's command vocabulary
// with outbound messages.
package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/match"
	"github.com/gnana997/libswap/pkg/propmap"
	"github.com/gnana997/libswap/pkg/scanner"
	"github.com/gnana997/libswap/pkg/store"
	"github.com/gnana997/libswap/pkg/swap"
)

// ErrUnknownCommand is returned by Dispatch for an unrecognised command type.
var ErrUnknownCommand = errors.New("plugin: unknown command")

// User-facing texts.
const (
	textSelectFrame    = "Please select at least one frame to scan"
	textDefaultToast   = "Swap completed successfully!"
	textRemoved        = "Library removed."
	textCleared        = "All libraries cleared."
	textReset          = "Plugin data reset"
	textSyncFailed     = "Failed to sync current file."
	textAddUnavailable = "Adding a library by reference is not available."
)

// Options configures a Session.
type Options struct {
	// Store persists the registry and the access credential. Required.
	Store store.Store
	// Notifier shows toasts. Nil logs them instead.
	Notifier host.Notifier
	// Source fetches libraries added by reference. Nil disables ADD_LIBRARY.
	Source library.Source
	// CacheSize bounds the match cache; zero uses match.DefaultCacheSize.
	CacheSize int
	Logger    *slog.Logger
}

// Session is the single actor that runs commands against one document.
// Dispatch serialises commands, so a batch never interleaves with another
// command.
type Session struct {
	mu sync.Mutex

	doc    host.Document
	store  store.Store
	notify host.Notifier
	source library.Source
	log    *slog.Logger

	matcher *match.Matcher
	scanner *scanner.Scanner
	engine  *swap.Engine
	syncer  *library.Syncer

	reg  *library.Registry
	snap *library.Snapshot
	// scanRoot holds the frames of the last scan; swaps run under them,
	// or under the live selection when nothing was scanned.
	scanRoot []host.Node
}

// New creates a session over doc with an empty registry. Call Load to
// restore the persisted one.
func New(doc host.Document, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("plugin: a store is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	notify := opts.Notifier
	if notify == nil {
		notify = host.NotifierFunc(func(m string) { log.Info("notify", "message", m) })
	}
	m, err := match.NewMatcher(opts.CacheSize, log)
	if err != nil {
		return nil, err
	}
	reg := library.NewRegistry()
	return &Session{
		doc:     doc,
		store:   opts.Store,
		notify:  notify,
		source:  opts.Source,
		log:     log,
		matcher: m,
		scanner: scanner.New(doc, m, log),
		engine:  swap.New(doc, log),
		syncer:  library.NewSyncer(log),
		reg:     reg,
		snap:    reg.Snapshot(),
	}, nil
}

// Snapshot returns the current library snapshot.
func (s *Session) Snapshot() *library.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// MatchStats reports the match cache counters.
func (s *Session) MatchStats() match.Stats {
	return s.matcher.Stats()
}

// Load restores the persisted registry and the credential status, then
// re-syncs the registry entry of the current document if there is one. A
// corrupt registry blob is logged and replaced by an empty registry.
func (s *Session) Load(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := store.LoadRegistry(ctx, s.store)
	if err != nil {
		s.log.Error("could not load libraries", "error", err)
		reg = library.NewRegistry()
	}
	s.reg = reg
	s.rebuild()
	s.log.Info("libraries loaded", "count", reg.Len(), "generation", s.snap.Generation)

	out := []Message{s.librariesUpdated()}
	tok, err := store.LoadToken(ctx, s.store)
	if err != nil {
		s.log.Warn("could not load token", "error", err)
	}
	out = append(out, TokenStatus{header: typed(MsgTokenStatus), HasToken: tok != ""})

	for _, l := range reg.List() {
		if l.IsLocal() && l.Name == s.doc.Name() {
			s.log.Info("refreshing current document library", "library", l.Name)
			msgs, err := s.syncCurrent(ctx)
			out = append(out, msgs...)
			return out, err
		}
	}
	return out, nil
}

// Reload re-reads the registry blob written by another process. It reports
// false when the stored registry matches the one in memory.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Get(ctx, store.KeyLibraries)
	if errors.Is(err, store.ErrNotFound) {
		data = []byte("[]")
	} else if err != nil {
		return false, fmt.Errorf("reload libraries: %w", err)
	}
	current, err := json.Marshal(s.reg)
	if err != nil {
		return false, fmt.Errorf("reload libraries: %w", err)
	}
	if bytes.Equal(bytes.TrimSpace(data), current) {
		return false, nil
	}
	reg, err := library.Decode(data)
	if err != nil {
		return false, fmt.Errorf("reload libraries: %w", err)
	}
	s.reg = reg
	s.rebuild()
	s.log.Info("libraries reloaded", "count", reg.Len(), "generation", s.snap.Generation)
	return true, nil
}

// Watch reloads the registry whenever the libraries blob changes in fs.
// The caller starts and stops the returned watcher.
func (s *Session) Watch(fs *store.FileStore, debounceMs int) (*store.Watcher, error) {
	return store.NewWatcher(fs, func(key string) {
		if _, err := s.Reload(context.Background()); err != nil {
			s.log.Warn("could not reload libraries", "key", key, "error", err)
		}
	}, store.WatchOptions{DebounceMs: debounceMs, Keys: []string{store.KeyLibraries}}, s.log)
}

// Dispatch runs one command and returns the messages it produced.
func (s *Session) Dispatch(ctx context.Context, cmd Command) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Debug("dispatch", "command", cmd.Type)

	switch cmd.Type {
	case CmdScanAll:
		return s.scan(ctx), nil
	case CmdPerformSwap:
		return s.performSwap(ctx, cmd)
	case CmdSyncCurrentFile:
		return s.syncCurrent(ctx)
	case CmdAddLibrary:
		return s.addLibrary(ctx, cmd.Ref)
	case CmdCheckFileStatus:
		name, synced := library.CurrentFileStatus(s.doc, s.reg)
		return []Message{FileStatus{header: typed(MsgFileStatus), Name: name, IsSynced: synced}}, nil
	case CmdRemoveLibrary:
		return s.removeLibrary(ctx, cmd.libraryID())
	case CmdRefreshLibrary:
		return s.refreshLibrary(ctx, cmd.libraryID())
	case CmdClearLibraries:
		s.reg.Clear()
		msgs, err := s.commit(ctx)
		s.notify.Notify(textCleared)
		return msgs, err
	case CmdReset:
		s.reg.Clear()
		s.scanRoot = nil
		msgs, err := s.commit(ctx)
		s.notify.Notify(textReset)
		return append(msgs, s.scan(ctx)...), err
	case CmdGetLibraries:
		return []Message{s.librariesUpdated()}, nil
	case CmdGetComponentProps:
		return []Message{s.componentProperties(ctx, cmd)}, nil
	case CmdGetTargetColor:
		msg := TargetColor{header: typed(MsgTargetColor), TokenID: cmd.TokenID}
		if hex, ok := s.engine.PreviewTargetColor(ctx, cmd.StyleName, cmd.TargetLibrary, s.snap); ok {
			msg.Color = &hex
		}
		return []Message{msg}, nil
	case CmdSetToken:
		if err := store.SaveToken(ctx, s.store, cmd.Token); err != nil {
			return nil, err
		}
		return []Message{TokenStatus{header: typed(MsgTokenStatus), HasToken: cmd.Token != ""}}, nil
	case CmdClearToken:
		if err := store.ClearToken(ctx, s.store); err != nil {
			return nil, err
		}
		return []Message{TokenStatus{header: typed(MsgTokenStatus)}}, nil
	case CmdShowToast:
		text := cmd.Message
		if text == "" {
			text = textDefaultToast
		}
		s.notify.Notify(text)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}

func (s *Session) rebuild() {
	s.snap = s.reg.Snapshot()
	s.matcher.Purge()
}

// commit persists the registry, rebuilds the snapshot and announces the
// new registry. The in-memory registry stays authoritative when saving
// fails.
func (s *Session) commit(ctx context.Context) ([]Message, error) {
	s.rebuild()
	msgs := []Message{s.librariesUpdated()}
	if err := store.SaveRegistry(ctx, s.store, s.reg); err != nil {
		s.log.Error("could not save libraries", "error", err)
		return msgs, err
	}
	s.log.Debug("libraries saved", "count", s.reg.Len(), "generation", s.snap.Generation)
	return msgs, nil
}

func (s *Session) librariesUpdated() LibrariesUpdated {
	libs := s.reg.List()
	if libs == nil {
		libs = []library.Library{}
	}
	return LibrariesUpdated{header: typed(MsgLibrariesUpdated), Libraries: libs}
}

func (s *Session) scan(ctx context.Context) []Message {
	sel := s.doc.Selection()
	if len(sel) == 0 {
		return []Message{ScanResult{header: typed(MsgScanResult), Error: textSelectFrame}}
	}
	res, err := s.scanner.Scan(ctx, sel, s.snap)
	if res != nil && len(res.Roots) > 0 {
		s.scanRoot = res.Roots
	}
	switch {
	case errors.Is(err, scanner.ErrNoLibrary):
		return []Message{ConnectLibrary{header: typed(MsgConnectLibrary)}}
	case err != nil:
		return []Message{ScanResult{header: typed(MsgScanResult), Error: fmt.Sprintf("Scan failed: %v", err)}}
	}
	return []Message{ScanResult{header: typed(MsgScanResult), OK: true, Data: res}}
}

func (s *Session) roots() []host.Node {
	if len(s.scanRoot) > 0 {
		return s.scanRoot
	}
	return s.doc.Selection()
}

func (s *Session) performSwap(ctx context.Context, cmd Command) ([]Message, error) {
	var names []string
	if e, ok := s.snap.Entry(cmd.SourceLibrary); ok {
		names = library.SortedNames(e.Components)
	}
	components, unmatched, err := ExpandComponents(cmd.Components, names)
	if err != nil {
		return []Message{SwapError{header: typed(MsgSwapError), Message: err.Error(), Details: []string{}}}, nil
	}
	if !s.snap.IsRegistered(cmd.TargetLibrary) {
		s.log.Warn("target library is not connected", "library", cmd.TargetLibrary)
	}

	req := swap.Request{
		Components:    components,
		Styles:        cmd.Styles,
		SourceLibrary: cmd.SourceLibrary,
		TargetLibrary: cmd.TargetLibrary,
	}
	r := s.engine.Perform(ctx, s.roots(), req, s.snap)
	for _, p := range unmatched {
		s.log.Warn("component pattern matched nothing", "pattern", p, "library", cmd.SourceLibrary)
		r.Errors = append(r.Errors, swap.ItemError{
			Item:   p,
			Reason: fmt.Sprintf("No component in library '%s' matches '%s'.", cmd.SourceLibrary, p),
			Err:    ErrNoPatternMatch,
		})
	}
	if r.Outcome() == swap.OutcomeAllSucceeded {
		return []Message{SwapComplete{header: typed(MsgSwapComplete), Message: r.Summary(), Report: r}}, nil
	}
	return []Message{SwapError{header: typed(MsgSwapError), Message: r.Summary(), Details: r.Details(), Report: r}}, nil
}

func (s *Session) syncCurrent(ctx context.Context) ([]Message, error) {
	rep, err := s.syncer.Sync(ctx, s.doc, s.reg)
	if err != nil {
		s.log.Error("sync failed", "error", err)
		s.notify.Notify(textSyncFailed)
		return nil, nil
	}
	s.log.Info("current document synced",
		"library", rep.Library.Name, "id", rep.Library.ID, "replaced", rep.Replaced,
		"warnings", len(rep.Warnings), "ms", rep.SyncTimeMs)
	return s.commit(ctx)
}

func (s *Session) addLibrary(ctx context.Context, ref string) ([]Message, error) {
	if s.source == nil {
		s.notify.Notify(textAddUnavailable)
		return nil, nil
	}
	lib, err := library.AddFromSource(ctx, s.source, ref, s.reg)
	if err != nil {
		s.log.Warn("could not add library", "ref", ref, "error", err)
		s.notify.Notify(fmt.Sprintf("Failed to add library: %v", err))
		return nil, nil
	}
	msgs, err := s.commit(ctx)
	s.notify.Notify(fmt.Sprintf("Library %q added.", lib.Name))
	return msgs, err
}

func (s *Session) removeLibrary(ctx context.Context, id string) ([]Message, error) {
	if err := s.reg.Remove(id); err != nil {
		s.log.Debug("remove of unknown library", "id", id)
	}
	msgs, err := s.commit(ctx)
	s.notify.Notify(textRemoved)
	return msgs, err
}

// refreshLibrary re-syncs a Local library when it is the current document
// and re-fetches a Remote one through the source. Anything else only
// notifies.
func (s *Session) refreshLibrary(ctx context.Context, id string) ([]Message, error) {
	lib, ok := s.reg.ByID(id)
	if !ok {
		s.log.Warn("refresh of unknown library", "id", id)
		return nil, nil
	}
	switch {
	case lib.IsLocal() && lib.Name == s.doc.Name():
		return s.syncCurrent(ctx)
	case !lib.IsLocal() && s.source != nil:
		return s.addLibrary(ctx, lib.ID)
	}
	s.notify.Notify(fmt.Sprintf("To refresh %q, please open that file and click \"Sync Current File\".", lib.Name))
	return nil, nil
}

func (s *Session) componentProperties(ctx context.Context, cmd Command) Message {
	view := propmap.Describe(ctx, s.doc, cmd.SourceID, cmd.TargetKey)
	for _, w := range view.Warnings {
		s.log.Warn("component properties", "source", cmd.SourceID, "target", cmd.TargetKey, "warning", w)
	}
	return PropertyMapping{
		header:            typed(MsgPropertyMapping),
		View:              view,
		TargetName:        cmd.TargetName,
		TargetLibraryName: cmd.TargetLibraryName,
		SourceLibraryName: cmd.SourceLibraryName,
	}
}
