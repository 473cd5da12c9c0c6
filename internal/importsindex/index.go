// Package importsindex implements §4.G: the forward/reverse adjacency index
// over package-item tokens, built in parallel and edited via clone-on-write
// mutators.
package importsindex

import (
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/pyarch/pyarch/internal/importscan"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pyast"
	"github.com/pyarch/pyarch/internal/pypath"
	"github.com/pyarch/pyarch/internal/resolve"
)

type internalEdgeKey struct {
	From, To pkgmodel.Token
}

type externalEdgeKey struct {
	From pkgmodel.Token
	To   pypath.PyPath
}

// Index is the immutable (from the query surface's perspective) forward/
// reverse adjacency map over package-item tokens described by §3/§4.G.
// Every mutator below returns a new Index with the edit applied rather than
// mutating this one, per the Lifecycle note in §3.
type Index struct {
	model *pkgmodel.Model

	internal        map[pkgmodel.Token]map[pkgmodel.Token]struct{}
	reverseInternal map[pkgmodel.Token]map[pkgmodel.Token]struct{}
	internalMeta    map[internalEdgeKey]ImportMetadata

	external     map[pkgmodel.Token]map[pypath.PyPath]struct{}
	externalMeta map[externalEdgeKey]ImportMetadata
}

// Model returns the package model this index was built over.
func (idx *Index) Model() *pkgmodel.Model { return idx.model }

// Options controls which edges Build includes, per §4.G.
type Options struct {
	// IncludeTypeCheckingImports, if false, omits edges whose import was
	// only reachable under a TYPE_CHECKING guard. Default true.
	IncludeTypeCheckingImports bool
	// IncludeExternalImports, if false, omits external_imports entirely.
	// Default true.
	IncludeExternalImports bool
}

// DefaultOptions returns §4.G's defaults (both true).
func DefaultOptions() Options {
	return Options{IncludeTypeCheckingImports: true, IncludeExternalImports: true}
}

func newEmptyIndex(model *pkgmodel.Model) *Index {
	idx := &Index{
		model:           model,
		internal:        make(map[pkgmodel.Token]map[pkgmodel.Token]struct{}),
		reverseInternal: make(map[pkgmodel.Token]map[pkgmodel.Token]struct{}),
		internalMeta:    make(map[internalEdgeKey]ImportMetadata),
		external:        make(map[pkgmodel.Token]map[pypath.PyPath]struct{}),
		externalMeta:    make(map[externalEdgeKey]ImportMetadata),
	}
	for _, tok := range model.AllTokens() {
		idx.internal[tok] = make(map[pkgmodel.Token]struct{})
		idx.reverseInternal[tok] = make(map[pkgmodel.Token]struct{})
		idx.external[tok] = make(map[pypath.PyPath]struct{})
	}
	return idx
}

type moduleEdges struct {
	tok   pkgmodel.Token
	items []resolvedEdge
	err   error
}

type resolvedEdge struct {
	toInternal pkgmodel.Token
	isInternal bool
	toExternal pypath.PyPath
	meta       ImportMetadata
}

// Build parses every module's imports in parallel (one task per module, per
// §4.G/§5), resolves them against model, and assembles the index. containerDir
// is the directory holding the root package, as required by pypath.FromPath.
func Build(model *pkgmodel.Model, parser *pyast.Parser, containerDir string, opts Options) (*Index, error) {
	idx := newEmptyIndex(model)

	for _, pkgTok := range model.AllTokens() {
		if model.KindOf(pkgTok) != pkgmodel.KindPackage {
			continue
		}
		pkg := model.Package(pkgTok)
		if pkg.HasInit {
			idx.addInternalLocked(pkgTok, pkg.InitModule, Implicit())
		}
	}

	moduleToks := model.AllTokens()
	results := make([]moduleEdges, 0, len(moduleToks))
	resultIdx := make(map[pkgmodel.Token]int)
	for _, tok := range moduleToks {
		if model.KindOf(tok) != pkgmodel.KindModule {
			continue
		}
		resultIdx[tok] = len(results)
		results = append(results, moduleEdges{tok: tok})
	}

	g := new(errgroup.Group)
	for i := range results {
		i := i
		g.Go(func() error {
			results[i] = processModule(model, parser, containerDir, results[i].tok, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		for _, e := range r.items {
			if e.isInternal {
				idx.addInternalLocked(r.tok, e.toInternal, e.meta)
			} else if opts.IncludeExternalImports {
				idx.addExternalLocked(r.tok, e.toExternal, e.meta)
			}
		}
	}

	return idx, nil
}

func processModule(model *pkgmodel.Model, parser *pyast.Parser, containerDir string, tok pkgmodel.Token, opts Options) moduleEdges {
	mod := model.Module(tok)

	source, err := os.ReadFile(mod.Path)
	if err != nil {
		return moduleEdges{tok: tok, err: err}
	}
	stmts, err := parser.Parse(mod.Path, source)
	if err != nil {
		return moduleEdges{tok: tok, err: err}
	}

	raws := importscan.Scan(stmts)
	var edges []resolvedEdge
	for _, raw := range raws {
		if raw.IsTypeChecking && !opts.IncludeTypeCheckingImports {
			continue
		}
		r, err := resolve.Resolve(raw.PyPath, mod.Path, containerDir, model)
		if err != nil {
			return moduleEdges{tok: tok, err: err}
		}
		meta := Explicit(raw.LineNumber, raw.IsTypeChecking)
		if r.Class == resolve.Internal {
			edges = append(edges, resolvedEdge{isInternal: true, toInternal: r.TargetItem.Token, meta: meta})
		} else {
			edges = append(edges, resolvedEdge{isInternal: false, toExternal: r.Target, meta: meta})
		}
	}
	return moduleEdges{tok: tok, items: edges}
}

// --- direct map accessors used by graphquery ---

// ForwardInternal returns the forward adjacency set for tok (never nil).
func (idx *Index) ForwardInternal(tok pkgmodel.Token) map[pkgmodel.Token]struct{} {
	return idx.internal[tok]
}

// ReverseInternal returns the reverse adjacency set for tok (never nil).
func (idx *Index) ReverseInternal(tok pkgmodel.Token) map[pkgmodel.Token]struct{} {
	return idx.reverseInternal[tok]
}

// ExternalOf returns the external targets tok directly imports (never nil).
func (idx *Index) ExternalOf(tok pkgmodel.Token) map[pypath.PyPath]struct{} {
	return idx.external[tok]
}

// InternalMetadata returns the metadata for the (from,to) internal edge.
func (idx *Index) InternalMetadata(from, to pkgmodel.Token) (ImportMetadata, error) {
	m, ok := idx.internalMeta[internalEdgeKey{From: from, To: to}]
	if !ok {
		return ImportMetadata{}, &NoSuchImportError{From: from, To: to}
	}
	return m, nil
}

// ExternalMetadata returns the metadata for the (from,to) external edge.
func (idx *Index) ExternalMetadata(from pkgmodel.Token, to pypath.PyPath) (ImportMetadata, error) {
	m, ok := idx.externalMeta[externalEdgeKey{From: from, To: to}]
	if !ok {
		return ImportMetadata{}, &NoSuchImportError{From: from, To: to}
	}
	return m, nil
}

// AllTokens delegates to the underlying model, for callers that only hold
// an Index.
func (idx *Index) AllTokens() []pkgmodel.Token { return idx.model.AllTokens() }

// --- mutation helpers (used both by Build and by the clone-on-write
// exported mutators below) ---

func (idx *Index) addInternalLocked(from, to pkgmodel.Token, meta ImportMetadata) {
	if idx.internal[from] == nil {
		idx.internal[from] = make(map[pkgmodel.Token]struct{})
	}
	if idx.reverseInternal[to] == nil {
		idx.reverseInternal[to] = make(map[pkgmodel.Token]struct{})
	}
	idx.internal[from][to] = struct{}{}
	idx.reverseInternal[to][from] = struct{}{}
	idx.internalMeta[internalEdgeKey{From: from, To: to}] = meta
}

func (idx *Index) addExternalLocked(from pkgmodel.Token, to pypath.PyPath, meta ImportMetadata) {
	if idx.external[from] == nil {
		idx.external[from] = make(map[pypath.PyPath]struct{})
	}
	idx.external[from][to] = struct{}{}
	idx.externalMeta[externalEdgeKey{From: from, To: to}] = meta
}

// clone performs a deep copy of every map so mutators never alias the
// receiver's state.
func (idx *Index) clone() *Index {
	out := &Index{
		model:           idx.model,
		internal:        make(map[pkgmodel.Token]map[pkgmodel.Token]struct{}, len(idx.internal)),
		reverseInternal: make(map[pkgmodel.Token]map[pkgmodel.Token]struct{}, len(idx.reverseInternal)),
		internalMeta:    make(map[internalEdgeKey]ImportMetadata, len(idx.internalMeta)),
		external:        make(map[pkgmodel.Token]map[pypath.PyPath]struct{}, len(idx.external)),
		externalMeta:    make(map[externalEdgeKey]ImportMetadata, len(idx.externalMeta)),
	}
	for k, v := range idx.internal {
		m := make(map[pkgmodel.Token]struct{}, len(v))
		for t := range v {
			m[t] = struct{}{}
		}
		out.internal[k] = m
	}
	for k, v := range idx.reverseInternal {
		m := make(map[pkgmodel.Token]struct{}, len(v))
		for t := range v {
			m[t] = struct{}{}
		}
		out.reverseInternal[k] = m
	}
	for k, v := range idx.internalMeta {
		out.internalMeta[k] = v
	}
	for k, v := range idx.external {
		m := make(map[pypath.PyPath]struct{}, len(v))
		for t := range v {
			m[t] = struct{}{}
		}
		out.external[k] = m
	}
	for k, v := range idx.externalMeta {
		out.externalMeta[k] = v
	}
	return out
}

// InternalEdge names one internal edge, used by the exclude_* mutators.
type InternalEdge struct{ From, To pkgmodel.Token }

// ExternalEdge names one external edge, used by the exclude_* mutators.
type ExternalEdge struct {
	From pkgmodel.Token
	To   pypath.PyPath
}

// AddInternalImport returns a clone of idx with (from,to) inserted,
// overwriting any previous metadata for that edge.
func (idx *Index) AddInternalImport(from, to pkgmodel.Token, meta ImportMetadata) *Index {
	out := idx.clone()
	out.addInternalLocked(from, to, meta)
	return out
}

// RemoveInternalImport returns a clone of idx with (from,to) removed, or
// NoSuchImportError if the edge did not exist.
func (idx *Index) RemoveInternalImport(from, to pkgmodel.Token) (*Index, error) {
	if _, ok := idx.internalMeta[internalEdgeKey{From: from, To: to}]; !ok {
		return nil, &NoSuchImportError{From: from, To: to}
	}
	out := idx.clone()
	delete(out.internal[from], to)
	delete(out.reverseInternal[to], from)
	delete(out.internalMeta, internalEdgeKey{From: from, To: to})
	return out, nil
}

// AddExternalImport returns a clone of idx with (from,to) inserted.
func (idx *Index) AddExternalImport(from pkgmodel.Token, to pypath.PyPath, meta ImportMetadata) *Index {
	out := idx.clone()
	out.addExternalLocked(from, to, meta)
	return out
}

// RemoveExternalImport returns a clone of idx with (from,to) removed, or
// NoSuchImportError if the edge did not exist.
func (idx *Index) RemoveExternalImport(from pkgmodel.Token, to pypath.PyPath) (*Index, error) {
	if _, ok := idx.externalMeta[externalEdgeKey{From: from, To: to}]; !ok {
		return nil, &NoSuchImportError{From: from, To: to}
	}
	out := idx.clone()
	delete(out.external[from], to)
	delete(out.externalMeta, externalEdgeKey{From: from, To: to})
	return out, nil
}

// ExcludeInternalImports returns a clone of idx with every named edge
// removed. Edges that do not exist are ignored (unlike RemoveInternalImport,
// this is a bulk convenience operation used by contract evaluation to carve
// out ignored edges, not a single-edge precision tool).
func (idx *Index) ExcludeInternalImports(edges []InternalEdge) *Index {
	out := idx.clone()
	for _, e := range edges {
		delete(out.internal[e.From], e.To)
		delete(out.reverseInternal[e.To], e.From)
		delete(out.internalMeta, internalEdgeKey{From: e.From, To: e.To})
	}
	return out
}

// ExcludeExternalImports returns a clone of idx with every named external
// edge removed.
func (idx *Index) ExcludeExternalImports(edges []ExternalEdge) *Index {
	out := idx.clone()
	for _, e := range edges {
		delete(out.external[e.From], e.To)
		delete(out.externalMeta, externalEdgeKey{From: e.From, To: e.To})
	}
	return out
}

// ExcludeTypeCheckingImports returns a clone of idx with every internal edge
// whose metadata is Explicit{IsTypeChecking: true} removed.
func (idx *Index) ExcludeTypeCheckingImports() *Index {
	var victims []InternalEdge
	for k, m := range idx.internalMeta {
		if m.Kind == MetaExplicit && m.IsTypeChecking {
			victims = append(victims, InternalEdge{From: k.From, To: k.To})
		}
	}
	return idx.ExcludeInternalImports(victims)
}
