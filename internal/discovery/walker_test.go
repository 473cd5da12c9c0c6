package discovery

import (
	"os"
	"path/filepath"
	"testing"
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

func TestWalkFiltersHiddenAndExtension(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "pkg", "a.py"), "")
	mustWriteFile(t, filepath.Join(root, "pkg", "a.txt"), "")
	mustWriteFile(t, filepath.Join(root, ".hidden", "b.py"), "")
	mustWriteFile(t, filepath.Join(root, "pkg", ".hidden.py"), "")

	w := New(ExcludeHidden, OnlyExtension(".py"))
	events, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	var files []string
	for _, e := range events {
		if e.Kind == File {
			files = append(files, e.Path)
		}
	}

	want := filepath.Join(root, "pkg", "a.py")
	if len(files) != 1 || files[0] != want {
		t.Errorf("files = %v, want exactly [%s]", files, want)
	}
}

func TestWalkRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, ".gitignore"), "ignored/\n")
	mustWriteFile(t, filepath.Join(root, "kept", "a.py"), "")
	mustWriteFile(t, filepath.Join(root, "ignored", "b.py"), "")

	w := New(ExcludeHidden, OnlyExtension(".py"))
	w, err := w.WithGitignore(root)
	if err != nil {
		t.Fatalf("WithGitignore: %v", err)
	}
	events, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	for _, e := range events {
		if e.Kind == File && filepath.Base(filepath.Dir(e.Path)) == "ignored" {
			t.Errorf("gitignored file leaked into results: %s", e.Path)
		}
	}
}

func TestWalkAlwaysReportsRoot(t *testing.T) {
	root := t.TempDir()
	w := New()
	events, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(events) == 0 || events[0].Kind != Directory {
		t.Fatalf("expected root directory event, got %v", events)
	}
}
