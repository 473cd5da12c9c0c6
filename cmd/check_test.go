package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pyarch/pyarch/pkg/types"
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

func TestRunCheckKeptWithNoConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	mustWriteFile(t, filepath.Join(dir, "__init__.py"), "")
	mustWriteFile(t, filepath.Join(dir, "a.py"), "")

	cmd := checkCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{dir})
	err := runCheck(cmd, []string{dir})
	if err != nil {
		t.Fatalf("runCheck with no config should succeed, got: %v", err)
	}
}

func TestRunCheckViolatesForbiddenExternalImport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	mustWriteFile(t, filepath.Join(dir, "__init__.py"), "")
	mustWriteFile(t, filepath.Join(dir, "a.py"), "import django.db\n")
	mustWriteFile(t, filepath.Join(dir, ".pyarch.yml"), `version: 1
contracts:
  - forbidden_external:
      from: proj.a
      to: django.db
`)

	cmd := checkCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	err := runCheck(cmd, []string{dir})
	if err == nil {
		t.Fatal("expected a violation error")
	}
	var exitErr *types.ExitError
	if ee, ok := err.(*types.ExitError); ok {
		exitErr = ee
	}
	if exitErr == nil {
		t.Fatalf("expected *types.ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != types.ExitViolated {
		t.Errorf("Code = %d, want %d", exitErr.Code, types.ExitViolated)
	}
}

func TestRunCheckBuildErrorOnBadDirectory(t *testing.T) {
	cmd := checkCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	err := runCheck(cmd, []string{filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("expected an error for a non-existent directory")
	}
	exitErr, ok := err.(*types.ExitError)
	if !ok {
		t.Fatalf("expected *types.ExitError, got %T", err)
	}
	if exitErr.Code != types.ExitBuildError {
		t.Errorf("Code = %d, want %d", exitErr.Code, types.ExitBuildError)
	}
}
