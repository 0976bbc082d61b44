package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/util"
)

// --- Helpers ---

func newMatcher(t *testing.T, size int) *Matcher {
	t.Helper()
	m, err := NewMatcher(size, util.Discard())
	require.NoError(t, err)
	return m
}

func snapshot(libs ...library.Library) *library.Snapshot {
	return library.NewRegistry(libs...).Snapshot()
}

func remote(name, id string, components map[string]string) library.Library {
	return library.Library{Name: name, ID: id, Kind: library.KindRemote, Components: components}
}

func TestFirst(t *testing.T) {
	calls := 0
	never := Strategy[int, string](func(int) (string, bool) { calls++; return "", false })
	even := Strategy[int, string](func(i int) (string, bool) { calls++; return "even", i%2 == 0 })
	always := Strategy[int, string](func(int) (string, bool) { calls++; return "any", true })

	chain := First(never, even, always)

	out, ok := chain(2)
	assert.True(t, ok)
	assert.Equal(t, "even", out)
	assert.Equal(t, 2, calls, "stops at the first success")

	out, ok = chain(3)
	assert.True(t, ok)
	assert.Equal(t, "any", out)

	_, ok = First[int, string]()(1)
	assert.False(t, ok)
}

func TestComponentRef_KeyParts(t *testing.T) {
	ref := ComponentRef{Key: "file/page/item"}
	assert.Equal(t, "file", ref.FileID())
	assert.Equal(t, "item", ref.ItemID())

	flat := ComponentRef{Key: "abc"}
	assert.Equal(t, "abc", flat.FileID())
	assert.Equal(t, "abc", flat.ItemID())

	trailing := ComponentRef{Key: "zzz/"}
	assert.Equal(t, "zzz", trailing.FileID())
	assert.Equal(t, "zzz/", trailing.ItemID())
}

func TestMatchComponent_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		libs      []library.Library
		ref       ComponentRef
		wantLib   string
		wantName  string
		wantScore float64
	}{
		{
			name:      "exact key",
			libs:      []library.Library{remote("Brand", "b1", map[string]string{"Button": "file/1/btn"})},
			ref:       ComponentRef{Key: "file/1/btn", Name: "Other"},
			wantLib:   "Brand",
			wantName:  "Button",
			wantScore: ScoreExact,
		},
		{
			name:      "last segment equals mapped",
			libs:      []library.Library{remote("Brand", "b1", map[string]string{"Button": "btn"})},
			ref:       ComponentRef{Key: "file/1/btn"},
			wantLib:   "Brand",
			wantName:  "Button",
			wantScore: ScoreItemID,
		},
		{
			name:      "key contains mapped",
			libs:      []library.Library{remote("Brand", "b1", map[string]string{"Button": "1/btn"})},
			ref:       ComponentRef{Key: "file/1/btn"},
			wantLib:   "Brand",
			wantName:  "Button",
			wantScore: ScoreKeyContains,
		},
		{
			name:      "mapped contains last segment",
			libs:      []library.Library{remote("Brand", "b1", map[string]string{"Button": "xx-btn-yy"})},
			ref:       ComponentRef{Key: "file/1/btn"},
			wantLib:   "Brand",
			wantName:  "Button",
			wantScore: ScoreMappedHasItem,
		},
		{
			name:      "name only",
			libs:      []library.Library{remote("Brand", "b1", map[string]string{"Button": "zzz"})},
			ref:       ComponentRef{Key: "file/1/btn", Name: "Button"},
			wantLib:   "Brand",
			wantName:  "Button",
			wantScore: ScoreName,
		},
		{
			name: "local library compares local id",
			libs: []library.Library{{Name: "Mine", ID: "local_1_x", Kind: library.KindLocal,
				Components: map[string]string{"Card": "12:34"}}},
			ref:       ComponentRef{ID: "12:34", Key: "deadbeef"},
			wantLib:   "Mine",
			wantName:  "Card",
			wantScore: ScoreExact,
		},
		{
			name: "higher tier wins across libraries",
			libs: []library.Library{
				remote("Weak", "w1", map[string]string{"Button": "zzz"}),
				remote("Strong", "s1", map[string]string{"Primary": "btn"}),
			},
			ref:       ComponentRef{Key: "file/1/btn", Name: "Button"},
			wantLib:   "Strong",
			wantName:  "Primary",
			wantScore: ScoreItemID,
		},
		{
			name: "tie keeps first library",
			libs: []library.Library{
				remote("First", "f1", map[string]string{"Button": "file/1/btn"}),
				remote("Second", "s2", map[string]string{"Button": "file/1/btn"}),
			},
			ref:       ComponentRef{Key: "file/1/btn"},
			wantLib:   "First",
			wantName:  "Button",
			wantScore: ScoreExact,
		},
		{
			name:      "file id fallback",
			libs:      []library.Library{remote("Brand", "FILEKEY", map[string]string{"Other": "nomatch"})},
			ref:       ComponentRef{Key: "FILEKEY/1/btn", Name: "Pill", SetName: "Badge"},
			wantLib:   "Brand",
			wantName:  "Pill",
			wantScore: ScoreFileID,
		},
		{
			name:      "partial file id fallback",
			libs:      []library.Library{remote("Brand", "FILEKEY", map[string]string{"Other": "nomatch"})},
			ref:       ComponentRef{Key: "v2-FILEKEY-x/1/btn", Name: "Chip"},
			wantLib:   "Brand",
			wantName:  "Chip",
			wantScore: ScoreFileIDPartial,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(t, 0)
			r, ok := m.MatchComponent(snapshot(tt.libs...), tt.ref)
			require.True(t, ok)
			assert.Equal(t, tt.wantLib, r.Library)
			assert.Equal(t, tt.wantName, r.Name)
			assert.Equal(t, tt.wantScore, r.Score)
		})
	}
}

func TestMatchComponent_ParentName(t *testing.T) {
	m := newMatcher(t, 0)
	snap := snapshot(remote("Brand", "b1", map[string]string{
		"Badge/Shape=Round": "rdkey",
		"Icon":              "iconkey",
	}))

	r, ok := m.MatchComponent(snap, ComponentRef{Key: "rdkey", Name: "Shape=Round", SetName: "Badge"})
	require.True(t, ok)
	assert.Equal(t, "Badge/Shape=Round", r.Name)
	assert.Equal(t, "Badge", r.ParentName)

	r, ok = m.MatchComponent(snap, ComponentRef{Key: "iconkey", Name: "Icon"})
	require.True(t, ok)
	assert.Equal(t, "Icon", r.ParentName)
}

func TestMatchComponent_DefaultTables(t *testing.T) {
	m := newMatcher(t, 0)
	r, ok := m.MatchComponent(snapshot(), ComponentRef{Key: "3e1bf9f255bc97d64c91dea5f8308d3a174974ea"})
	require.True(t, ok)
	assert.Equal(t, "Shark", r.Library)
	assert.Equal(t, "Rectangle", r.Name)
}

func TestMatchComponent_NoMatch(t *testing.T) {
	m := newMatcher(t, 0)
	_, ok := m.MatchComponent(snapshot(remote("Brand", "b1", map[string]string{"Button": "k"})), ComponentRef{Key: "zzz/1/q", Name: "Nope"})
	assert.False(t, ok)

	_, ok = m.MatchComponent(snapshot(remote("Brand", "b1", map[string]string{"Button": "k"})), ComponentRef{Name: "Nope"})
	assert.False(t, ok, "empty key never matches by substring")
}

func TestMatchComponent_TrailingSlashKey(t *testing.T) {
	m := newMatcher(t, 0)
	_, ok := m.MatchComponent(snapshot(), ComponentRef{Key: "zzz/", Name: "Unrelated"})
	assert.False(t, ok, "an empty item id never matches by substring")
}

func TestMatchComponent_Deterministic(t *testing.T) {
	snap := snapshot(
		remote("A", "a1", map[string]string{"X": "k1", "Y": "k1", "Z": "k1"}),
		remote("B", "b1", map[string]string{"X": "k1"}),
	)
	ref := ComponentRef{Key: "k1"}

	first, ok := newMatcher(t, 0).MatchComponent(snap, ref)
	require.True(t, ok)
	for range 20 {
		r, _ := newMatcher(t, 0).MatchComponent(snap, ref)
		assert.Equal(t, first, r)
	}
	assert.Equal(t, "A", first.Library)
	assert.Equal(t, "X", first.Name)
}

func TestMatchComponent_CacheFollowsGeneration(t *testing.T) {
	m := newMatcher(t, 0)
	reg := library.NewRegistry(remote("Brand", "b1", map[string]string{"Button": "k"}))
	ref := ComponentRef{Key: "k"}

	_, ok := m.MatchComponent(reg.Snapshot(), ref)
	require.True(t, ok)
	snap := reg.Snapshot()
	m.MatchComponent(snap, ref)
	m.MatchComponent(snap, ref)
	assert.Equal(t, int64(1), m.Stats().Hits)

	reg.Upsert(remote("Brand", "b1", map[string]string{"Button": "changed"}))
	_, ok = m.MatchComponent(reg.Snapshot(), ref)
	assert.False(t, ok, "new snapshot is not served from the cache")
}

func TestMatcher_Eviction(t *testing.T) {
	m := newMatcher(t, 2)
	snap := snapshot()
	for _, k := range []string{"a", "b", "c", "d"} {
		m.MatchStyle(snap, k)
	}
	st := m.Stats()
	assert.Equal(t, 2, st.Size)
	assert.Equal(t, int64(2), st.Evictions)
	assert.Equal(t, int64(4), st.Misses)

	m.Purge()
	assert.Equal(t, 0, m.Stats().Size)
}

func TestNormalizeStyleKey(t *testing.T) {
	assert.Equal(t, "abc", NormalizeStyleKey("S:abc,"))
	assert.Equal(t, "abc", NormalizeStyleKey("abc"))
	assert.Equal(t, "a,b", NormalizeStyleKey("S:a,b,"))
}

func TestMatchStyle(t *testing.T) {
	m := newMatcher(t, 0)
	snap := snapshot(library.Library{Name: "Shark", ID: "s1", Kind: library.KindRemote,
		Styles: map[string]string{"Background": "S:bgkey,"}})

	r, ok := m.MatchStyle(snap, "bgkey")
	require.True(t, ok)
	assert.Equal(t, "Shark", r.Library)
	assert.Equal(t, "Background", r.Name)

	r, ok = m.MatchStyle(snap, "S:bgkey,")
	require.True(t, ok)
	assert.Equal(t, "Background", r.Name)

	_, ok = m.MatchStyle(snap, "unknown")
	assert.False(t, ok)
}

func TestMatchVariable(t *testing.T) {
	m := newMatcher(t, 0)
	snap := snapshot(
		library.Library{Name: "Monkey", ID: "m1", Kind: library.KindRemote,
			Variables: map[string]string{"color/primary": "vk"}},
		library.Library{Name: "Hybrid", ID: "h1", Kind: library.KindRemote,
			Styles: map[string]string{"Accent": "crosskey"}},
	)

	r, ok := m.MatchVariable(snap, "vk")
	require.True(t, ok)
	assert.Equal(t, "Monkey", r.Library)
	assert.Equal(t, "color/primary", r.Name)

	r, ok = m.MatchVariable(snap, "crosskey")
	require.True(t, ok)
	assert.Equal(t, "Hybrid", r.Library, "falls back to style tables")

	_, ok = m.MatchVariable(snap, "")
	assert.False(t, ok)
}

func TestInstanceMatches(t *testing.T) {
	snap := snapshot(remote("Shark", "s1", map[string]string{"Rectangle": "keyA"}))

	tests := []struct {
		name string
		ref  ComponentRef
		comp string
		lib  string
		want bool
	}{
		{"key", ComponentRef{Key: "keyA"}, "Rectangle", "Shark", true},
		{"local id", ComponentRef{ID: "keyA", Key: "other"}, "Rectangle", "Shark", true},
		{"name", ComponentRef{Key: "other", Name: "Rectangle"}, "Rectangle", "Shark", true},
		{"different", ComponentRef{Key: "keyB", Name: "Circle"}, "Rectangle", "Shark", false},
		{"unknown name", ComponentRef{Key: "keyA"}, "Circle", "Shark", false},
		{"unknown library", ComponentRef{Key: "keyA"}, "Rectangle", "Nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstanceMatches(snap, tt.ref, tt.comp, tt.lib))
		})
	}
}
