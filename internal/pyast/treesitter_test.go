package pyast

import "testing"

func TestNewParser(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()
}

func TestParseSimpleImports(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()

	src := []byte("import os\nimport foo.bar as fb\nfrom . import sibling\nfrom ..pkg import thing\n")
	stmts, err := p.Parse("mod.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 4 {
		t.Fatalf("len(stmts) = %d, want 4", len(stmts))
	}

	if stmts[0].Kind != KindImport || len(stmts[0].Names) != 1 || stmts[0].Names[0].Name != "os" {
		t.Errorf("stmts[0] = %+v, want Import{os}", stmts[0])
	}
	if stmts[1].Kind != KindImport || stmts[1].Names[0].Name != "foo.bar" {
		t.Errorf("stmts[1] = %+v, want Import{foo.bar}", stmts[1])
	}
	if stmts[2].Kind != KindImportFrom || stmts[2].Level != 1 || stmts[2].Module != "" {
		t.Errorf("stmts[2] = %+v, want ImportFrom{level=1, module=\"\"}", stmts[2])
	}
	if stmts[3].Kind != KindImportFrom || stmts[3].Level != 2 || stmts[3].Module != "pkg" {
		t.Errorf("stmts[3] = %+v, want ImportFrom{level=2, module=pkg}", stmts[3])
	}
}

func TestParseTypeCheckingGuard(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()

	src := []byte("import typing\nif typing.TYPE_CHECKING:\n    import heavy_dep\nelse:\n    heavy_dep = None\n")
	stmts, err := p.Parse("mod.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("len(stmts) = %d, want 2", len(stmts))
	}
	ifStmt := stmts[1]
	if ifStmt.Kind != KindIf {
		t.Fatalf("stmts[1].Kind = %v, want KindIf", ifStmt.Kind)
	}
	if !ifStmt.Test.IsTypeCheckingGuard() {
		t.Errorf("Test = %+v, want a TYPE_CHECKING guard", ifStmt.Test)
	}
	if len(ifStmt.Body) != 1 || ifStmt.Body[0].Kind != KindImport {
		t.Errorf("Body = %+v, want a single import", ifStmt.Body)
	}
	if len(ifStmt.Orelse) != 1 {
		t.Errorf("Orelse = %+v, want a single assignment-as-simple-stmt", ifStmt.Orelse)
	}
}

func TestParseSyntaxErrorReported(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()

	src := []byte("def broken(:\n")
	if _, err := p.Parse("broken.py", src); err == nil {
		t.Error("expected an UnableToParseSourceFileError for invalid syntax")
	}
}

func TestParseNestedImportInsideFunction(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()

	src := []byte("def f():\n    import json\n    return json\n")
	stmts, err := p.Parse("mod.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 1 || stmts[0].Kind != KindCompound {
		t.Fatalf("stmts = %+v, want a single compound function def", stmts)
	}
	if len(stmts[0].Children) != 1 {
		t.Fatalf("Children = %+v, want a single body block", stmts[0].Children)
	}
	body := stmts[0].Children[0]
	if len(body) != 2 || body[0].Kind != KindImport {
		t.Errorf("body = %+v, want [Import, Simple]", body)
	}
}
