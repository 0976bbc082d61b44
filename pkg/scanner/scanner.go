package scanner

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/match"
)

// Scanner walks selections and attributes what it finds to libraries.
type Scanner struct {
	assets  host.Assets
	matcher *match.Matcher
	log     *slog.Logger
}

// New creates a scanner resolving styles and variables through assets.
// A nil logger uses slog.Default().
func New(assets host.Assets, matcher *match.Matcher, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{assets: assets, matcher: matcher, log: logger}
}

// pass holds the state of one scan.
type pass struct {
	s          *Scanner
	snap       *library.Snapshot
	components []ComponentMatch
	tokens     []TokenMatch
	seen       map[string]bool
	stats      *Stats
}

// Scan inventories every frame in roots. Nodes that are not frames are
// skipped. Only matches against registered libraries are returned.
//
// When the filtered result is empty and the registry is empty, Scan returns
// the result together with ErrNoLibrary so callers can tell "nothing
// connected" from "nothing found".
func (s *Scanner) Scan(ctx context.Context, roots []host.Node, snap *library.Snapshot) (*Result, error) {
	if len(roots) == 0 {
		return nil, ErrEmptySelection
	}
	totalStart := time.Now()
	res := &Result{}
	p := &pass{s: s, snap: snap, seen: map[string]bool{}, stats: &res.Stats}

	// Phase 1: traversal
	scanStart := time.Now()
	for _, root := range roots {
		if root.Type() != host.NodeFrame {
			res.Stats.RootsSkipped++
			continue
		}
		res.Stats.RootsScanned++
		res.Roots = append(res.Roots, root)
		p.visit(ctx, root)
	}
	res.Stats.ScanTimeMs = time.Since(scanStart).Milliseconds()

	s.log.Info("scan complete",
		"frames", res.Stats.RootsScanned, "nodes", res.Stats.NodesVisited,
		"components", len(p.components), "tokens", len(p.tokens), "ms", res.Stats.ScanTimeMs)

	// Phase 2: registry filter
	filterStart := time.Now()
	for _, c := range p.components {
		if snap.IsRegistered(c.Library) {
			res.Components = append(res.Components, c)
		} else {
			res.Stats.ComponentsDropped++
		}
	}
	for _, t := range p.tokens {
		if t.Library != "" && snap.IsRegistered(t.Library) {
			res.Tokens = append(res.Tokens, t)
		} else {
			res.Stats.TokensDropped++
		}
	}
	res.Libraries = summarize(res.Components, res.Tokens, snap)
	res.Stats.FilterTimeMs = time.Since(filterStart).Milliseconds()
	res.Stats.TotalTimeMs = time.Since(totalStart).Milliseconds()

	s.log.Info("filter complete",
		"components", len(res.Components), "tokens", len(res.Tokens),
		"dropped", res.Stats.ComponentsDropped+res.Stats.TokensDropped, "ms", res.Stats.FilterTimeMs)

	if len(res.Components) == 0 && len(res.Tokens) == 0 && snap.Empty() {
		return res, ErrNoLibrary
	}
	return res, nil
}

// visit scans n's own bindings, then its children unless n is an instance.
// An instance's internals are not independently swappable.
func (p *pass) visit(ctx context.Context, n host.Node) {
	p.stats.NodesVisited++
	if inst, ok := n.(host.Instance); ok {
		p.instance(ctx, inst)
	}
	p.styles(ctx, n)
	if n.Type() == host.NodeInstance {
		return
	}
	if c, ok := n.(host.Container); ok {
		for _, child := range c.Children() {
			p.visit(ctx, child)
		}
	}
}

func (p *pass) instance(ctx context.Context, inst host.Instance) {
	p.stats.InstancesSeen++
	main, err := inst.MainComponent(ctx)
	if err != nil {
		p.stats.OrphanedInstances++
		p.s.log.Debug("skipping orphaned instance", "node", inst.ID(), "error", err)
		return
	}
	ref := match.RefOf(main)
	r, ok := p.s.matcher.MatchComponent(p.snap, ref)
	if !ok {
		return
	}
	if strings.HasPrefix(r.Name, ".") {
		p.stats.PrivateSkipped++
		return
	}
	p.components = append(p.components, ComponentMatch{
		LiveNodeID:      inst.ID(),
		MainComponentID: main.ID(),
		VariantName:     r.Name,
		DisplayName:     r.ParentName,
		Library:         r.Library,
		IsRemote:        main.Remote(),
		LibraryFileID:   r.FileID,
		Score:           r.Score,
	})
}

func (p *pass) styles(ctx context.Context, n host.Node) {
	if f, ok := n.(host.FillStyled); ok && f.FillStyleID() != "" {
		p.style(ctx, f.FillStyleID(), host.StylePaint)
	}
	if s, ok := n.(host.StrokeStyled); ok && s.StrokeStyleID() != "" {
		p.style(ctx, s.StrokeStyleID(), host.StylePaint)
	}
	if pt, ok := n.(host.Painted); ok {
		for _, paint := range pt.Paints(host.FieldFills) {
			if paint.BoundVariableID != "" {
				p.variable(ctx, paint.BoundVariableID)
			}
		}
	}
	if t, ok := n.(host.TextStyled); ok && t.TextStyleID() != "" {
		p.style(ctx, t.TextStyleID(), host.StyleText)
	}
	if e, ok := n.(host.EffectStyled); ok && e.EffectStyleID() != "" {
		p.style(ctx, e.EffectStyleID(), host.StyleEffect)
	}
	if g, ok := n.(host.GridStyled); ok && g.GridStyleID() != "" {
		p.style(ctx, g.GridStyleID(), host.StyleGrid)
	}
}

func (p *pass) style(ctx context.Context, id string, want host.StyleKind) {
	if p.seen[id] {
		return
	}
	st, err := p.s.assets.StyleByID(ctx, id)
	if err != nil {
		p.s.log.Debug("skipping unresolved style", "style", id, "error", err)
		return
	}
	if st.Kind != want {
		return
	}
	p.seen[id] = true
	tok := TokenMatch{LiveAssetID: st.ID, Name: st.Name}
	switch st.Kind {
	case host.StylePaint:
		tok.Kind = TokenColor
		tok.ResolvedValue = PaintHex(st.Paints)
	case host.StyleText:
		tok.Kind = TokenTypography
		tok.ResolvedValue = Typography(st)
	case host.StyleEffect:
		tok.Kind = TokenEffect
		tok.ResolvedValue = "Effect style"
	case host.StyleGrid:
		tok.Kind = TokenSpacing
		tok.ResolvedValue = "Grid style"
	}
	if r, ok := p.s.matcher.MatchStyle(p.snap, st.Key); ok {
		tok.Library = r.Library
	}
	p.tokens = append(p.tokens, tok)
}

func (p *pass) variable(ctx context.Context, id string) {
	if p.seen[id] {
		return
	}
	v, err := p.s.assets.VariableByID(ctx, id)
	if err != nil {
		p.s.log.Debug("skipping unresolved variable", "variable", id, "error", err)
		return
	}
	if v.Type != host.VariableColor {
		return
	}
	p.seen[id] = true
	tok := TokenMatch{LiveAssetID: v.ID, Name: v.Name, Kind: TokenColor, ResolvedValue: black, Variable: true}
	if c, ok := v.FirstColor(); ok {
		tok.ResolvedValue = c.Hex()
	}
	if r, ok := p.s.matcher.MatchVariable(p.snap, v.Key); ok {
		tok.Library = r.Library
	}
	p.tokens = append(p.tokens, tok)
}

const black = "#000000"

// PaintHex renders the first paint of a list, or black when it is not a
// solid colour.
func PaintHex(paints []host.Paint) string {
	if len(paints) == 0 || paints[0].Type != host.PaintSolid {
		return black
	}
	return paints[0].Color.Hex()
}

// Typography renders a text style as "<size>px <family>".
func Typography(st host.Style) string {
	family := st.FontFamily
	if family == "" {
		family = "Unknown"
	}
	return strconv.FormatFloat(st.FontSize, 'f', -1, 64) + "px " + family
}

// summarize counts matches per library in order of first appearance.
func summarize(components []ComponentMatch, tokens []TokenMatch, snap *library.Snapshot) []LibrarySummary {
	var out []LibrarySummary
	index := map[string]int{}
	get := func(name string) *LibrarySummary {
		i, ok := index[name]
		if !ok {
			sum := LibrarySummary{Name: name}
			if l, ok := snap.Library(name); ok {
				sum.Thumbnail = l.Thumbnail
			}
			out = append(out, sum)
			i = len(out) - 1
			index[name] = i
		}
		return &out[i]
	}
	for _, c := range components {
		sum := get(c.Library)
		sum.ComponentCount++
		if sum.FileID == "" {
			sum.FileID = c.LibraryFileID
		}
	}
	for _, t := range tokens {
		get(t.Library).TokenCount++
	}
	return out
}
