// Package importscan implements §4.E: extracting raw import statements from
// one file's statement tree, honoring the TYPE_CHECKING gate.
package importscan

import (
	"strings"

	"github.com/pyarch/pyarch/internal/pyast"
)

// RawImport is one import statement as written in the source, before
// relative/star resolution (§4.F does that). PyPath may be absolute,
// relative (leading dots), or star-suffixed.
type RawImport struct {
	PyPath         string
	LineNumber     int
	IsTypeChecking bool
}

// Scan walks stmts (the top-level body of one parsed file) and returns every
// import it contains, in source order.
func Scan(stmts []*pyast.Stmt) []RawImport {
	var out []RawImport

	visitor := pyast.VisitorFunc(func(s *pyast.Stmt, ctx any) pyast.Decision {
		typeChecking, _ := ctx.(bool)

		switch s.Kind {
		case pyast.KindImport:
			for _, n := range s.Names {
				out = append(out, RawImport{PyPath: n.Name, LineNumber: n.Line, IsTypeChecking: typeChecking})
			}
			return pyast.None()

		case pyast.KindImportFrom:
			prefix := strings.Repeat(".", s.Level)
			if s.Module != "" {
				prefix += s.Module + "."
			}
			for _, n := range s.Names {
				out = append(out, RawImport{PyPath: prefix + n.Name, LineNumber: n.Line, IsTypeChecking: typeChecking})
			}
			return pyast.None()

		case pyast.KindIf:
			if s.Test.IsTypeCheckingGuard() {
				return pyast.Some(
					pyast.Group{Stmts: s.Body, Ctx: true},
					pyast.Group{Stmts: s.Orelse, Ctx: false},
				)
			}
			return pyast.All()

		default:
			return pyast.All()
		}
	})

	pyast.Walk(stmts, false, visitor)
	return out
}
