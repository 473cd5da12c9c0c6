package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pyarch/pyarch/internal/discovery"
	"github.com/pyarch/pyarch/internal/pkgmodel"
)

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

// buildModel lays out:
//
//	proj/__init__.py
//	proj/a.py
//	proj/sub/__init__.py
//	proj/sub/b.py
func buildModel(t *testing.T) (*pkgmodel.Model, string) {
	t.Helper()
	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	mustWriteFile(t, filepath.Join(proj, pkgmodel.InitFileName), "")
	mustWriteFile(t, filepath.Join(proj, "a.py"), "")
	mustWriteFile(t, filepath.Join(proj, "sub", pkgmodel.InitFileName), "")
	mustWriteFile(t, filepath.Join(proj, "sub", "b.py"), "")

	w := discovery.New(discovery.ExcludeHidden, discovery.OnlyExtension(".py"))
	m, err := pkgmodel.Build(proj, w)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m, proj
}

func TestResolveAbsoluteInternal(t *testing.T) {
	model, proj := buildModel(t)
	container := filepath.Dir(proj)

	r, err := Resolve("proj.sub.b", filepath.Join(proj, "a.py"), container, model)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Class != Internal {
		t.Fatalf("Class = %v, want Internal", r.Class)
	}
	if r.Target.String() != "proj.sub.b" {
		t.Errorf("Target = %q, want proj.sub.b", r.Target)
	}
}

func TestResolveRelativeSingleDot(t *testing.T) {
	model, proj := buildModel(t)
	container := filepath.Dir(proj)

	// "from . import b" written inside proj/sub/__init__.py means "import
	// proj.sub.b" (sibling in the same package).
	r, err := Resolve(".b", filepath.Join(proj, "sub", "__init__.py"), container, model)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Class != Internal || r.Target.String() != "proj.sub.b" {
		t.Errorf("r = %+v, want internal proj.sub.b", r)
	}
}

func TestResolveRelativeAscending(t *testing.T) {
	model, proj := buildModel(t)
	container := filepath.Dir(proj)

	// "from ..a" written inside proj/sub/b.py ascends one package above sub.
	r, err := Resolve("..a", filepath.Join(proj, "sub", "b.py"), container, model)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Class != Internal || r.Target.String() != "proj.a" {
		t.Errorf("r = %+v, want internal proj.a", r)
	}
}

func TestResolveExternal(t *testing.T) {
	model, proj := buildModel(t)
	container := filepath.Dir(proj)

	r, err := Resolve("django.db", filepath.Join(proj, "a.py"), container, model)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Class != External || r.Target.String() != "django.db" {
		t.Errorf("r = %+v, want external django.db", r)
	}
}

func TestResolveStarImportStripped(t *testing.T) {
	model, proj := buildModel(t)
	container := filepath.Dir(proj)

	r, err := Resolve("proj.sub.*", filepath.Join(proj, "a.py"), container, model)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Target.String() != "proj.sub" {
		t.Errorf("Target = %q, want proj.sub (star suffix stripped)", r.Target)
	}
}

func TestResolveUnknownInternalImport(t *testing.T) {
	model, proj := buildModel(t)
	container := filepath.Dir(proj)

	// Neither proj.nonexistent.thing nor its parent proj.nonexistent is a
	// known item, yet both lie inside the root package proj.
	_, err := Resolve("proj.nonexistent.thing", filepath.Join(proj, "a.py"), container, model)
	if err == nil {
		t.Fatal("expected UnknownInternalImportError")
	}
	var unknown *UnknownInternalImportError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownInternalImportError, got %T", err)
	}
}
