package contract

import (
	"sort"

	"github.com/pyarch/pyarch/internal/graphquery"
	"github.com/pyarch/pyarch/internal/pkgmodel"
)

// FindCycles detects import cycles in g's internal-import graph using Tarjan's
// strongly connected components algorithm: the distilled spec's reachability
// queries are cycle-tolerant (visited-set BFS) but never name a dedicated
// cycle report, so this is additive. A self-loop (an item with an internal
// import edge to itself) also counts as a cycle; the implicit package ->
// init-module edge joins two distinct tokens and is not one.
func FindCycles(g *graphquery.Graph) [][]pkgmodel.Token {
	s := &tarjan{
		g:       g,
		index:   make(map[pkgmodel.Token]int),
		lowlink: make(map[pkgmodel.Token]int),
		onStack: make(map[pkgmodel.Token]bool),
	}

	tokens := g.Model().AllTokens()
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	for _, tok := range tokens {
		if _, seen := s.index[tok]; !seen {
			s.strongConnect(tok)
		}
	}

	var cycles [][]pkgmodel.Token
	for _, scc := range s.sccs {
		if len(scc) > 1 || selfLoop(g, scc[0]) {
			sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func selfLoop(g *graphquery.Graph, tok pkgmodel.Token) bool {
	_, ok := g.Index().ForwardInternal(tok)[tok]
	return ok
}

// tarjan holds the mutable state of one Tarjan SCC pass, run as an explicit
// recursive walk (package trees are shallow enough that native recursion is
// the simplest faithful rendition of the textbook algorithm).
type tarjan struct {
	g       *graphquery.Graph
	counter int
	index   map[pkgmodel.Token]int
	lowlink map[pkgmodel.Token]int
	onStack map[pkgmodel.Token]bool
	stack   []pkgmodel.Token
	sccs    [][]pkgmodel.Token
}

func (s *tarjan) strongConnect(v pkgmodel.Token) {
	s.index[v] = s.counter
	s.lowlink[v] = s.counter
	s.counter++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	neighbors := make([]pkgmodel.Token, 0, len(s.g.Index().ForwardInternal(v)))
	for n := range s.g.Index().ForwardInternal(v) {
		neighbors = append(neighbors, n)
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })

	for _, w := range neighbors {
		if _, seen := s.index[w]; !seen {
			s.strongConnect(w)
			if s.lowlink[w] < s.lowlink[v] {
				s.lowlink[v] = s.lowlink[w]
			}
		} else if s.onStack[w] {
			if s.index[w] < s.lowlink[v] {
				s.lowlink[v] = s.index[w]
			}
		}
	}

	if s.lowlink[v] == s.index[v] {
		var scc []pkgmodel.Token
		for {
			n := len(s.stack) - 1
			w := s.stack[n]
			s.stack = s.stack[:n]
			s.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		s.sccs = append(s.sccs, scc)
	}
}
