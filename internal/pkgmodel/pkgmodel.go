// Package pkgmodel builds and exposes the package/module tree (§3 "Package
// items", §4.C) that every downstream component addresses by stable token.
//
// Packages and modules share one global token space — a Package and a
// Module are never assigned the same Token — so the imports index can use a
// single Token->Token adjacency map regardless of which concrete kind either
// endpoint is. The arena owns child identity via Token fields, never via
// pointers, so queries can hand out cheap copies and parallel readers can
// share the arena without synchronization once Build has returned.
package pkgmodel

import (
	"path/filepath"
	"sort"

	"github.com/pyarch/pyarch/internal/discovery"
	"github.com/pyarch/pyarch/internal/pypath"
)

// InitFileName is the distinguished module filename that marks a package
// initializer.
const InitFileName = "__init__.py"

// Token is a compact, stable handle to a Package or Module, valid for the
// lifetime of the Model that produced it. Tokens are drawn from one global
// space shared by packages and modules.
type Token int

// Kind distinguishes the two PackageItem variants.
type Kind int

const (
	// KindPackage marks a directory-backed package item.
	KindPackage Kind = iota
	// KindModule marks a file-backed module item.
	KindModule
)

// Package is a directory in the source tree.
type Package struct {
	Token         Token
	Path          string
	PyPath        pypath.PyPath
	Parent        Token // parent package token
	HasParent     bool
	ChildPackages []Token
	ChildModules  []Token
	InitModule    Token // valid only if HasInit
	HasInit       bool
}

// Module is a single source file.
type Module struct {
	Token  Token
	Path   string
	PyPath pypath.PyPath
	IsInit bool
	Parent Token // owning package token
}

// Item is the uniform view over a Package or Module used by queries that do
// not care which concrete kind they are looking at.
type Item struct {
	Token  Token
	Kind   Kind
	Path   string
	PyPath pypath.PyPath
}

// Model is the built package/module tree: an arena of packages and modules
// plus the bijective token/path/pypath indices §3 requires.
type Model struct {
	kinds []Kind // indexed by Token; local index into packages/modules below
	local []int  // indexed by Token

	packages []Package
	modules  []Module

	byPath   map[string]Token
	byPyPath map[pypath.PyPath]Token

	root Token
}

func (m *Model) newToken(k Kind, localIdx int) Token {
	tok := Token(len(m.kinds))
	m.kinds = append(m.kinds, k)
	m.local = append(m.local, localIdx)
	return tok
}

// Build walks rootDir with a Walker already configured for hidden-dir and
// ".py"-extension filtering, and assembles the Model. Every directory on the
// path is treated as a package regardless of whether it has an initializer
// (§4.C); discovering __init__.py only sets InitModule on that package.
func Build(rootDir string, w *discovery.Walker) (*Model, error) {
	events, err := w.Walk(rootDir)
	if err != nil {
		return nil, err
	}

	containerDir := filepath.Dir(filepath.Clean(rootDir))

	m := &Model{
		byPath:   make(map[string]Token),
		byPyPath: make(map[pypath.PyPath]Token),
	}

	var dirs, files []discovery.Event
	for _, e := range events {
		if e.Kind == discovery.Directory {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i].Path) < len(dirs[j].Path) })

	for _, d := range dirs {
		pp, err := pypath.FromPath(d.Path, containerDir)
		if err != nil {
			return nil, err
		}
		localIdx := len(m.packages)
		tok := m.newToken(KindPackage, localIdx)
		pkg := Package{Token: tok, Path: d.Path, PyPath: pp}
		if d.Path == filepath.Clean(rootDir) {
			m.root = tok
		} else {
			parentTok, ok := m.byPath[filepath.Dir(d.Path)]
			if !ok {
				// Parent was excluded by a filter; should not happen given
				// dirs-first, shortest-path-first ordering, but skip rather
				// than panic if it ever does.
				m.kinds = m.kinds[:len(m.kinds)-1]
				m.local = m.local[:len(m.local)-1]
				continue
			}
			pkg.Parent = parentTok
			pkg.HasParent = true
		}
		m.packages = append(m.packages, pkg)
		m.byPath[d.Path] = tok
		m.byPyPath[pp] = tok
		if pkg.HasParent {
			parent := &m.packages[m.local[pkg.Parent]]
			parent.ChildPackages = append(parent.ChildPackages, tok)
		}
	}

	for _, f := range files {
		pp, err := pypath.FromPath(f.Path, containerDir)
		if err != nil {
			return nil, err
		}
		parentTok, ok := m.byPath[filepath.Dir(f.Path)]
		if !ok {
			continue
		}
		localIdx := len(m.modules)
		tok := m.newToken(KindModule, localIdx)
		isInit := filepath.Base(f.Path) == InitFileName
		mod := Module{Token: tok, Path: f.Path, PyPath: pp, IsInit: isInit, Parent: parentTok}
		m.modules = append(m.modules, mod)
		m.byPath[f.Path] = tok
		m.byPyPath[pp] = tok

		parent := &m.packages[m.local[parentTok]]
		parent.ChildModules = append(parent.ChildModules, tok)
		if isInit {
			parent.InitModule = tok
			parent.HasInit = true
		}
	}

	return m, nil
}

// Root returns the token of the root package.
func (m *Model) Root() Token { return m.root }

// KindOf reports whether tok addresses a Package or a Module.
func (m *Model) KindOf(tok Token) Kind { return m.kinds[tok] }

// Package returns the Package at tok. Callers must know tok is a package
// token (KindOf(tok) == KindPackage); see Item for a kind-safe accessor.
func (m *Model) Package(tok Token) Package { return m.packages[m.local[tok]] }

// Module returns the Module at tok. Callers must know tok is a module token.
func (m *Model) Module(tok Token) Module { return m.modules[m.local[tok]] }

// NumPackages returns the number of packages in the arena.
func (m *Model) NumPackages() int { return len(m.packages) }

// NumModules returns the number of modules in the arena.
func (m *Model) NumModules() int { return len(m.modules) }

// NumTokens returns the total number of package items (packages + modules).
func (m *Model) NumTokens() int { return len(m.kinds) }

// TokenByPath looks up a token by its absolute filesystem path.
func (m *Model) TokenByPath(path string) (Token, bool) {
	t, ok := m.byPath[path]
	return t, ok
}

// TokenByPyPath looks up a token by pypath.
func (m *Model) TokenByPyPath(p pypath.PyPath) (Token, bool) {
	t, ok := m.byPyPath[p]
	return t, ok
}

// Item returns the uniform view of tok.
func (m *Model) Item(tok Token) Item {
	switch m.kinds[tok] {
	case KindPackage:
		p := m.packages[m.local[tok]]
		return Item{Token: tok, Kind: KindPackage, Path: p.Path, PyPath: p.PyPath}
	default:
		mo := m.modules[m.local[tok]]
		return Item{Token: tok, Kind: KindModule, Path: mo.Path, PyPath: mo.PyPath}
	}
}

// AllTokens returns every token (packages and modules) in build order.
func (m *Model) AllTokens() []Token {
	toks := make([]Token, len(m.kinds))
	for i := range toks {
		toks[i] = Token(i)
	}
	return toks
}

// ChildItems returns the immediate package and module children of pkg.
func (m *Model) ChildItems(pkg Token) []Item {
	p := m.Package(pkg)
	items := make([]Item, 0, len(p.ChildPackages)+len(p.ChildModules))
	for _, c := range p.ChildPackages {
		items = append(items, m.Item(c))
	}
	for _, c := range p.ChildModules {
		items = append(items, m.Item(c))
	}
	return items
}

// DescendantItems returns every package and module strictly beneath pkg, in
// pre-order.
func (m *Model) DescendantItems(pkg Token) []Item {
	var out []Item
	var walk func(Token)
	walk = func(t Token) {
		p := m.Package(t)
		for _, c := range p.ChildPackages {
			out = append(out, m.Item(c))
			walk(c)
		}
		for _, c := range p.ChildModules {
			out = append(out, m.Item(c))
		}
	}
	walk(pkg)
	return out
}

// DescendantTokens is DescendantItems reduced to bare tokens, convenient for
// as-packages expansion (§4.H).
func (m *Model) DescendantTokens(pkg Token) []Token {
	items := m.DescendantItems(pkg)
	toks := make([]Token, len(items))
	for i, it := range items {
		toks[i] = it.Token
	}
	return toks
}

// AllItems returns the root package followed by all of its descendants.
func (m *Model) AllItems() []Item {
	root := m.Item(m.root)
	return append([]Item{root}, m.DescendantItems(m.root)...)
}

// FilterPackages narrows an Item slice to packages only.
func FilterPackages(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Kind == KindPackage {
			out = append(out, it)
		}
	}
	return out
}

// FilterModules narrows an Item slice to modules only.
func FilterModules(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Kind == KindModule {
			out = append(out, it)
		}
	}
	return out
}
