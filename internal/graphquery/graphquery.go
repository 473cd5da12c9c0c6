// Package graphquery implements §4.H: read-only traversal over an
// importsindex.Index, from single-edge lookups through transitive reachability
// and shortest witness paths.
package graphquery

import (
	"github.com/pyarch/pyarch/internal/importsindex"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pypath"
)

// Graph wraps an Index with the traversal operations §4.H names. It carries
// no state of its own: every method reads straight through to idx, so a
// Graph is cheap to construct and safe to share across goroutines as long as
// the underlying Index is never mutated (it isn't — Index mutators always
// clone).
type Graph struct {
	idx   *importsindex.Index
	model *pkgmodel.Model
}

// New wraps idx for querying.
func New(idx *importsindex.Index) *Graph {
	return &Graph{idx: idx, model: idx.Model()}
}

// Index returns the underlying Index, for callers that read its adjacency
// maps directly (the contract engine's FindCycles does).
func (g *Graph) Index() *importsindex.Index { return g.idx }

// Model returns the underlying package model.
func (g *Graph) Model() *pkgmodel.Model { return g.model }

// GetDirectImports returns every item tok directly imports internally, in
// token order.
func (g *Graph) GetDirectImports(tok pkgmodel.Token) []pkgmodel.Token {
	return sortedKeys(g.idx.ForwardInternal(tok))
}

// GetItemsThatDirectlyImport returns every item that directly imports tok
// internally, in token order.
func (g *Graph) GetItemsThatDirectlyImport(tok pkgmodel.Token) []pkgmodel.Token {
	return sortedKeys(g.idx.ReverseInternal(tok))
}

// DirectImportExists reports whether from directly imports to internally.
func (g *Graph) DirectImportExists(from, to pkgmodel.Token) bool {
	_, ok := g.idx.ForwardInternal(from)[to]
	return ok
}

// GetImportMetadata returns the metadata recorded for the from->to internal
// edge.
func (g *Graph) GetImportMetadata(from, to pkgmodel.Token) (importsindex.ImportMetadata, error) {
	return g.idx.InternalMetadata(from, to)
}

// ExternalImportsOf returns every external pypath tok directly imports,
// sorted. This is additive to the core query surface, used by reports that
// want to name third-party dependencies a package actually touches.
func (g *Graph) ExternalImportsOf(tok pkgmodel.Token) []pypath.PyPath {
	set := g.idx.ExternalOf(tok)
	out := make([]pypath.PyPath, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sortPyPaths(out)
	return out
}

// AllExternalTargets returns the set of every external pypath imported from
// anywhere in the tree, sorted. Additive: used to summarize a project's
// third-party surface in one call instead of unioning ExternalImportsOf over
// every token.
func (g *Graph) AllExternalTargets() []pypath.PyPath {
	seen := make(map[pypath.PyPath]struct{})
	for _, tok := range g.model.AllTokens() {
		for p := range g.idx.ExternalOf(tok) {
			seen[p] = struct{}{}
		}
	}
	out := make([]pypath.PyPath, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sortPyPaths(out)
	return out
}

// GetDownstreamItems returns every item transitively reachable from tok via
// internal imports (tok's dependencies), excluding tok itself. The traversal
// is cycle-tolerant: each token is visited at most once regardless of how
// many paths reach it.
func (g *Graph) GetDownstreamItems(tok pkgmodel.Token) []pkgmodel.Token {
	return bfs(tok, g.idx.ForwardInternal)
}

// GetUpstreamItems returns every item that transitively depends on tok
// (directly or indirectly), excluding tok itself.
func (g *Graph) GetUpstreamItems(tok pkgmodel.Token) []pkgmodel.Token {
	return bfs(tok, g.idx.ReverseInternal)
}

func bfs(start pkgmodel.Token, next func(pkgmodel.Token) map[pkgmodel.Token]struct{}) []pkgmodel.Token {
	visited := map[pkgmodel.Token]struct{}{start: {}}
	queue := []pkgmodel.Token{start}
	var out []pkgmodel.Token
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		neighbors := sortedKeys(next(cur))
		for _, n := range neighbors {
			if _, ok := visited[n]; ok {
				continue
			}
			visited[n] = struct{}{}
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// PathQuery names a shortest-path request: does from reach to internally,
// optionally forbidden from routing through any token in ExcludingPathsVia.
type PathQuery struct {
	From             pkgmodel.Token
	To               pkgmodel.Token
	ExcludingPathsVia []pkgmodel.Token
}

// PathExists reports whether q.From can reach q.To without passing through
// any of q.ExcludingPathsVia.
func (g *Graph) PathExists(q PathQuery) bool {
	path := g.ShortestPath(q)
	return path != nil
}

// ShortestPath returns the shortest witness path from q.From to q.To (as a
// token sequence including both endpoints), honoring q.ExcludingPathsVia, or
// nil if no such path exists. Implemented as a plain BFS with the excluded
// tokens removed from the frontier rather than via a synthetic source/sink
// pair, which would only pay off if From/To were themselves sets; here they
// are single tokens so a direct BFS is simpler and equivalent.
func (g *Graph) ShortestPath(q PathQuery) []pkgmodel.Token {
	excluded := make(map[pkgmodel.Token]struct{}, len(q.ExcludingPathsVia))
	for _, t := range q.ExcludingPathsVia {
		excluded[t] = struct{}{}
	}
	if _, ok := excluded[q.From]; ok {
		return nil
	}
	if _, ok := excluded[q.To]; ok {
		return nil
	}
	if q.From == q.To {
		return []pkgmodel.Token{q.From}
	}

	prev := map[pkgmodel.Token]pkgmodel.Token{q.From: q.From}
	queue := []pkgmodel.Token{q.From}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range sortedKeys(g.idx.ForwardInternal(cur)) {
			if _, skip := excluded[n]; skip {
				continue
			}
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if n == q.To {
				return reconstruct(prev, q.From, q.To)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func reconstruct(prev map[pkgmodel.Token]pkgmodel.Token, from, to pkgmodel.Token) []pkgmodel.Token {
	var rev []pkgmodel.Token
	cur := to
	for {
		rev = append(rev, cur)
		if cur == from {
			break
		}
		cur = prev[cur]
	}
	out := make([]pkgmodel.Token, len(rev))
	for i, t := range rev {
		out[len(rev)-1-i] = t
	}
	return out
}

// ForbiddenInternalPath performs the multi-source, multi-sink reachability
// search behind a ForbiddenInternalImport query (§4.I): does any token in
// fromSet reach any token in toSet without passing through exclude? fromSet,
// toSet and exclude are expected to already be "as packages" expanded by the
// caller (ExpandAsPackages). Returns the shortest witness path (token
// sequence from one fromSet member to the reached toSet member), or nil.
func (g *Graph) ForbiddenInternalPath(fromSet, toSet, exclude []pkgmodel.Token) []pkgmodel.Token {
	toMark := toTokenSet(toSet)
	excludeMark := toTokenSet(exclude)

	roots := make([]pkgmodel.Token, 0, len(fromSet))
	rootSeen := make(map[pkgmodel.Token]struct{})
	for _, f := range fromSet {
		if _, bad := excludeMark[f]; bad {
			continue
		}
		if _, dup := rootSeen[f]; dup {
			continue
		}
		rootSeen[f] = struct{}{}
		roots = append(roots, f)
	}
	sortTokens(roots)

	prev := make(map[pkgmodel.Token]pkgmodel.Token, len(roots))
	var queue []pkgmodel.Token
	for _, r := range roots {
		if _, hit := toMark[r]; hit {
			return []pkgmodel.Token{r}
		}
		prev[r] = r
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range sortedKeys(g.idx.ForwardInternal(cur)) {
			if _, bad := excludeMark[n]; bad {
				continue
			}
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if _, hit := toMark[n]; hit {
				return reconstructFrom(prev, n)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

// ForbiddenExternalPath performs the external variant of
// ForbiddenInternalPath: does any token in fromSet reach (via internal
// imports, avoiding exclude) a module with an external edge whose target is
// contained by toContains? Returns the internal witness path ending at the
// carrying module plus the offending external pypath, or (nil, "").
func (g *Graph) ForbiddenExternalPath(fromSet []pkgmodel.Token, toContains pypath.PyPath, exclude []pkgmodel.Token) ([]pkgmodel.Token, pypath.PyPath) {
	excludeMark := toTokenSet(exclude)

	matchExternal := func(tok pkgmodel.Token) (pypath.PyPath, bool) {
		for p := range g.idx.ExternalOf(tok) {
			if toContains.Contains(p) {
				return p, true
			}
		}
		return "", false
	}

	roots := make([]pkgmodel.Token, 0, len(fromSet))
	rootSeen := make(map[pkgmodel.Token]struct{})
	for _, f := range fromSet {
		if _, bad := excludeMark[f]; bad {
			continue
		}
		if _, dup := rootSeen[f]; dup {
			continue
		}
		rootSeen[f] = struct{}{}
		roots = append(roots, f)
	}
	sortTokens(roots)

	prev := make(map[pkgmodel.Token]pkgmodel.Token, len(roots))
	var queue []pkgmodel.Token
	for _, r := range roots {
		if target, ok := matchExternal(r); ok {
			return []pkgmodel.Token{r}, target
		}
		prev[r] = r
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range sortedKeys(g.idx.ForwardInternal(cur)) {
			if _, bad := excludeMark[n]; bad {
				continue
			}
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if target, ok := matchExternal(n); ok {
				return reconstructFrom(prev, n), target
			}
			queue = append(queue, n)
		}
	}
	return nil, ""
}

func reconstructFrom(prev map[pkgmodel.Token]pkgmodel.Token, end pkgmodel.Token) []pkgmodel.Token {
	var rev []pkgmodel.Token
	cur := end
	for {
		rev = append(rev, cur)
		if prev[cur] == cur {
			break
		}
		cur = prev[cur]
	}
	out := make([]pkgmodel.Token, len(rev))
	for i, t := range rev {
		out[len(rev)-1-i] = t
	}
	return out
}

func toTokenSet(toks []pkgmodel.Token) map[pkgmodel.Token]struct{} {
	m := make(map[pkgmodel.Token]struct{}, len(toks))
	for _, t := range toks {
		m[t] = struct{}{}
	}
	return m
}

func sortTokens(toks []pkgmodel.Token) {
	for i := 1; i < len(toks); i++ {
		for j := i; j > 0 && toks[j-1] > toks[j]; j-- {
			toks[j-1], toks[j] = toks[j], toks[j-1]
		}
	}
}

// ExpandAsPackages expands each token in toks into itself plus every
// descendant item, for callers implementing "as_packages" semantics (a
// contract naming a package means the package and everything beneath it).
// Module tokens pass through unchanged.
func (g *Graph) ExpandAsPackages(toks []pkgmodel.Token) []pkgmodel.Token {
	seen := make(map[pkgmodel.Token]struct{})
	var out []pkgmodel.Token
	add := func(t pkgmodel.Token) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range toks {
		add(t)
		if g.model.KindOf(t) == pkgmodel.KindPackage {
			for _, d := range g.model.DescendantTokens(t) {
				add(d)
			}
		}
	}
	return out
}

func sortedKeys(m map[pkgmodel.Token]struct{}) []pkgmodel.Token {
	out := make([]pkgmodel.Token, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func sortPyPaths(ps []pypath.PyPath) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j-1] > ps[j]; j-- {
			ps[j-1], ps[j] = ps[j], ps[j-1]
		}
	}
}
