package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gnana997/libswap/catalogs"
	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/host/memhost"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/plugin"
	"github.com/gnana997/libswap/pkg/store"
	"github.com/gnana997/libswap/pkg/util"
)

// app holds what every command needs: resolved settings, the logger, the
// file cache and the file store.
type app struct {
	settings settings
	log      *slog.Logger
	cache    util.FileCache
	store    *store.FileStore
	stdout   io.Writer
	stderr   io.Writer
}

func newApp(s settings, stdout, stderr io.Writer) (*app, error) {
	log := util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(s.LogLevel),
		Format: util.ParseLogFormat(s.LogFormat),
		Output: stderr,
	})
	cache := util.NewFileCache(util.DefaultFileCacheConfig())
	fs, err := store.NewFileStore(s.StoreDir, cache, log)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("open store %s: %w", s.StoreDir, err)
	}
	return &app{settings: s, log: log, cache: cache, store: fs, stdout: stdout, stderr: stderr}, nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

// document loads the fixture at path. With required false and no path an
// empty, untitled document is returned for commands that only touch the
// registry.
func (a *app) document(path string, required bool) (*memhost.Doc, error) {
	if path == "" {
		if required {
			return nil, fmt.Errorf("no document: pass --document or set %s", envDocument)
		}
		return memhost.New(memhost.DocSpec{})
	}
	data, err := a.cache.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := memhost.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", path, err)
	}
	a.log.Debug("document loaded", "path", path, "name", doc.Name())
	return doc, nil
}

// source resolves library references against the manifests directory
// first, then the bundled manifests.
func (a *app) source() library.Source {
	var srcs library.Sources
	if a.settings.Manifests != "" {
		srcs = append(srcs, &library.FileSource{Dir: a.settings.Manifests, Cache: a.cache})
	}
	return append(srcs, catalogs.Source{})
}

// session opens a session over doc and restores the stored registry.
// LIBSWAP_TOKEN, when set, replaces the stored credential.
func (a *app) session(ctx context.Context, doc host.Document, notify host.Notifier) (*plugin.Session, error) {
	if notify == nil {
		notify = a.toasts()
	}
	sess, err := plugin.New(doc, plugin.Options{
		Store:    a.store,
		Notifier: notify,
		Source:   a.source(),
		Logger:   a.log,
	})
	if err != nil {
		return nil, err
	}
	if _, err := sess.Load(ctx); err != nil {
		return nil, err
	}
	if a.settings.Token != "" {
		if _, err := sess.Dispatch(ctx, plugin.Command{Type: plugin.CmdSetToken, Token: a.settings.Token}); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// toasts prints notifications to stderr.
func (a *app) toasts() host.Notifier {
	return host.NotifierFunc(func(m string) {
		fmt.Fprintln(a.stderr, noteMark, m)
	})
}
