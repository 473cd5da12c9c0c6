package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestRunGraphDumpsImports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	mustWriteFile(t, filepath.Join(dir, "__init__.py"), "")
	mustWriteFile(t, filepath.Join(dir, "a.py"), "import proj.b\nimport django.db\n")
	mustWriteFile(t, filepath.Join(dir, "b.py"), "")

	cmd := graphCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := runGraph(cmd, []string{dir}); err != nil {
		t.Fatalf("runGraph: %v", err)
	}

	var dump graphDump
	if err := json.Unmarshal(out.Bytes(), &dump); err != nil {
		t.Fatalf("json.Unmarshal: %v\noutput: %s", err, out.String())
	}
	if len(dump.Items) == 0 {
		t.Fatal("expected at least one item")
	}
	found := false
	for _, targets := range dump.Internal {
		for _, tgt := range targets {
			if tgt == "proj.b" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected an internal import edge to proj.b")
	}
}

func TestRunGraphErrorsOnMissingDirectory(t *testing.T) {
	cmd := graphCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := runGraph(cmd, []string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected an error for a non-existent directory")
	}
}
