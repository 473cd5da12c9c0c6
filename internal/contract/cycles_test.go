package contract

import (
	"path/filepath"
	"testing"

	"github.com/pyarch/pyarch/internal/discovery"
	"github.com/pyarch/pyarch/internal/graphquery"
	"github.com/pyarch/pyarch/internal/importsindex"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pyast"
	"github.com/pyarch/pyarch/internal/pypath"
)

func buildGraph(t *testing.T, root string) *graphquery.Graph {
	t.Helper()
	w := discovery.New(discovery.ExcludeHidden, discovery.OnlyExtension(".py"))
	model, err := pkgmodel.Build(root, w)
	if err != nil {
		t.Fatalf("pkgmodel.Build: %v", err)
	}
	parser, err := pyast.NewParser()
	if err != nil {
		t.Fatalf("pyast.NewParser: %v", err)
	}
	defer parser.Close()
	idx, err := importsindex.Build(model, parser, filepath.Dir(root), importsindex.DefaultOptions())
	if err != nil {
		t.Fatalf("importsindex.Build: %v", err)
	}
	return graphquery.New(idx)
}

func TestFindCyclesDetectsTwoModuleCycle(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	mustWriteFile(t, filepath.Join(root, pkgmodel.InitFileName), "")
	mustWriteFile(t, filepath.Join(root, "a.py"), "import proj.b\n")
	mustWriteFile(t, filepath.Join(root, "b.py"), "import proj.a\n")

	g := buildGraph(t, root)
	cycles := FindCycles(g)

	a, _ := g.Model().TokenByPyPath(pypath.MustNew("proj.a"))
	b, _ := g.Model().TokenByPyPath(pypath.MustNew("proj.b"))

	found := false
	for _, scc := range cycles {
		if len(scc) == 2 && containsToken(scc, a) && containsToken(scc, b) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 2-element cycle {a,b}, got %v", cycles)
	}
}

func TestFindCyclesEmptyForAcyclicGraph(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	mustWriteFile(t, filepath.Join(root, pkgmodel.InitFileName), "")
	mustWriteFile(t, filepath.Join(root, "a.py"), "import proj.b\n")
	mustWriteFile(t, filepath.Join(root, "b.py"), "")

	g := buildGraph(t, root)
	cycles := FindCycles(g)
	if len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
}

func containsToken(toks []pkgmodel.Token, tok pkgmodel.Token) bool {
	for _, t := range toks {
		if t == tok {
			return true
		}
	}
	return false
}
