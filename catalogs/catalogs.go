// Package catalogs bundles the published-library manifests of the reference
// libraries, so they can be connected without a manifest directory.
package catalogs

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/gnana997/libswap/pkg/library"
)

//go:embed libraries/*.json
var libraries embed.FS

// ErrUnknownLibrary is returned for a reference with no bundled manifest.
var ErrUnknownLibrary = errors.New("catalogs: no bundled library")

// Source fetches bundled manifests by reference ("shark", "monkey").
// References are case-insensitive.
type Source struct{}

// Fetch implements library.Source.
func (Source) Fetch(_ context.Context, ref string) (*library.Published, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) {
		return nil, fmt.Errorf("%w %q", ErrUnknownLibrary, ref)
	}
	name := path.Join("libraries", strings.ToLower(ref)+".json")
	data, err := libraries.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w %q", ErrUnknownLibrary, ref)
	}
	if err != nil {
		return nil, err
	}
	return library.ParsePublished(data, name)
}

// Refs lists the bundled references.
func Refs() []string {
	entries, _ := libraries.ReadDir("libraries")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(out)
	return out
}
