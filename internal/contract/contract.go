// Package contract implements §4.I: the architectural contract engine. Every
// contract reduces to a set of ForbiddenInternalImport / ForbiddenExternalImport
// queries, which are evaluated in parallel (one task per query, never
// short-circuiting on the first violation) and reported as witness paths.
package contract

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pyarch/pyarch/internal/graphquery"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pypath"
)

// ForbiddenInternalImport is a single reduced query: no path may exist from
// (From or any descendant) to (To or any descendant) that avoids (ExceptVia
// or any of its descendants).
type ForbiddenInternalImport struct {
	From      pkgmodel.Token
	To        pkgmodel.Token
	ExceptVia []pkgmodel.Token
}

// ForbiddenExternalImport is the external counterpart: no module reachable
// from From's closure may carry an external edge whose target pypath is
// contained by To.
type ForbiddenExternalImport struct {
	From      pkgmodel.Token
	To        pypath.PyPath
	ExceptVia []pkgmodel.Token
}

// InternalViolation reports one ForbiddenInternalImport query that found a
// witness path.
type InternalViolation struct {
	Query ForbiddenInternalImport
	Path  []pkgmodel.Token
}

// ExternalViolation reports one ForbiddenExternalImport query that found a
// witness.
type ExternalViolation struct {
	Query  ForbiddenExternalImport
	Path   []pkgmodel.Token
	Target pypath.PyPath
}

// Verification is the outcome of verifying one contract: Kept when both
// slices are empty.
type Verification struct {
	Internal []InternalViolation
	External []ExternalViolation
}

// Kept reports whether the contract held (no violations of either kind).
func (v Verification) Kept() bool {
	return len(v.Internal) == 0 && len(v.External) == 0
}

// Contract is the shared interface of every contract kind (§4.I:
// "Polymorphism of contracts" — tagged variants behind one verify method,
// not a unified data shape).
type Contract interface {
	Verify(g *graphquery.Graph) Verification
}

// runQueries evaluates every internal and external query concurrently
// (§5: "the contract engine fans out one task per forbidden-import query")
// and returns the aggregated violation lists. Order of the input slices is
// preserved in spirit but not guaranteed in the output, matching §8's "size,
// ordering irrelevant" equivalence.
func runQueries(g *graphquery.Graph, internalQs []ForbiddenInternalImport, externalQs []ForbiddenExternalImport) Verification {
	var (
		mu     sync.Mutex
		result Verification
	)

	grp := new(errgroup.Group)

	for _, q := range internalQs {
		q := q
		grp.Go(func() error {
			fromSet := g.ExpandAsPackages([]pkgmodel.Token{q.From})
			toSet := g.ExpandAsPackages([]pkgmodel.Token{q.To})
			exceptSet := g.ExpandAsPackages(q.ExceptVia)

			path := g.ForbiddenInternalPath(fromSet, toSet, exceptSet)
			if path != nil {
				mu.Lock()
				result.Internal = append(result.Internal, InternalViolation{Query: q, Path: path})
				mu.Unlock()
			}
			return nil
		})
	}

	for _, q := range externalQs {
		q := q
		grp.Go(func() error {
			fromSet := g.ExpandAsPackages([]pkgmodel.Token{q.From})
			exceptSet := g.ExpandAsPackages(q.ExceptVia)

			path, target := g.ForbiddenExternalPath(fromSet, q.To, exceptSet)
			if path != nil {
				mu.Lock()
				result.External = append(result.External, ExternalViolation{Query: q, Path: path, Target: target})
				mu.Unlock()
			}
			return nil
		})
	}

	_ = grp.Wait() // queries never return an error; Wait only awaits completion
	return result
}

// ForbiddenInternalImportContract is the single-edge internal contract of
// §4.I's "Forbidden-single-edge contracts".
type ForbiddenInternalImportContract struct {
	From      pkgmodel.Token
	To        pkgmodel.Token
	ExceptVia []pkgmodel.Token
}

// Verify implements Contract.
func (c ForbiddenInternalImportContract) Verify(g *graphquery.Graph) Verification {
	return runQueries(g, []ForbiddenInternalImport{{From: c.From, To: c.To, ExceptVia: c.ExceptVia}}, nil)
}

// ForbiddenExternalImportContract is the single-edge external contract.
type ForbiddenExternalImportContract struct {
	From      pkgmodel.Token
	To        pypath.PyPath
	ExceptVia []pkgmodel.Token
}

// Verify implements Contract.
func (c ForbiddenExternalImportContract) Verify(g *graphquery.Graph) Verification {
	return runQueries(g, nil, []ForbiddenExternalImport{{From: c.From, To: c.To, ExceptVia: c.ExceptVia}})
}

// IndependentItems is §4.I's IndependentItems contract: no member of Items
// may import any other member, in either direction.
type IndependentItems struct {
	Items []pkgmodel.Token
}

// Verify implements Contract.
func (c IndependentItems) Verify(g *graphquery.Graph) Verification {
	var qs []ForbiddenInternalImport
	for _, a := range c.Items {
		for _, b := range c.Items {
			if a == b {
				continue
			}
			qs = append(qs, ForbiddenInternalImport{From: a, To: b})
		}
	}
	return runQueries(g, qs, nil)
}
