package contract

import (
	"github.com/pyarch/pyarch/internal/graphquery"
	"github.com/pyarch/pyarch/internal/pkgmodel"
)

// Layer is one named level of a LayeredArchitectureContract, ordered from
// lowest (index 0) to highest.
type Layer struct {
	Name                string
	Siblings            []pkgmodel.Token
	SiblingsIndependent bool
}

// LayeredArchitectureContract is §4.I's layered-architecture contract: a
// total order over layers where higher layers may depend on lower ones but
// not vice versa, with an optional "no skipping more than one layer down"
// rule and optional sibling independence per layer.
type LayeredArchitectureContract struct {
	Layers []Layer
	// AllowDeepImports disables rule 2 (deep-downward-imports-forbidden)
	// when true. Default false.
	AllowDeepImports bool
}

// Verify implements Contract by reducing the layer order to the three rules
// of §4.I and running the resulting forbidden-import queries.
func (c LayeredArchitectureContract) Verify(g *graphquery.Graph) Verification {
	var qs []ForbiddenInternalImport

	for i, li := range c.Layers {
		// Rule 1: upward imports forbidden.
		for j := i + 1; j < len(c.Layers); j++ {
			lj := c.Layers[j]
			for _, a := range li.Siblings {
				for _, b := range lj.Siblings {
					qs = append(qs, ForbiddenInternalImport{From: a, To: b})
				}
			}
		}

		// Rule 2: deep downward imports forbidden, unless allowed.
		if !c.AllowDeepImports && i >= 2 {
			exceptVia := c.Layers[i-1].Siblings
			for k := 0; k < i-1; k++ {
				lk := c.Layers[k]
				for _, a := range li.Siblings {
					for _, b := range lk.Siblings {
						qs = append(qs, ForbiddenInternalImport{From: a, To: b, ExceptVia: exceptVia})
					}
				}
			}
		}

		// Rule 3: independent siblings.
		if li.SiblingsIndependent {
			for _, a := range li.Siblings {
				for _, b := range li.Siblings {
					if a == b {
						continue
					}
					qs = append(qs, ForbiddenInternalImport{From: a, To: b})
				}
			}
		}
	}

	return runQueries(g, qs, nil)
}
