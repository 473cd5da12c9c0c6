package pyast

import "testing"

func TestWalkAllRecursesCompound(t *testing.T) {
	inner := &Stmt{Kind: KindImport, Names: []Name{{Name: "os"}}}
	fn := &Stmt{Kind: KindCompound, Children: [][]*Stmt{{inner}}}

	var visited []*Stmt
	Walk([]*Stmt{fn}, "ctx", VisitorFunc(func(s *Stmt, ctx any) Decision {
		visited = append(visited, s)
		if ctx != "ctx" {
			t.Errorf("context not propagated, got %v", ctx)
		}
		return All()
	}))

	if len(visited) != 2 || visited[0] != fn || visited[1] != inner {
		t.Errorf("visited = %v, want [fn, inner]", visited)
	}
}

func TestWalkNoneStopsRecursion(t *testing.T) {
	inner := &Stmt{Kind: KindImport}
	fn := &Stmt{Kind: KindCompound, Children: [][]*Stmt{{inner}}}

	var visited []*Stmt
	Walk([]*Stmt{fn}, nil, VisitorFunc(func(s *Stmt, ctx any) Decision {
		visited = append(visited, s)
		return None()
	}))

	if len(visited) != 1 {
		t.Errorf("visited = %v, want only the outer statement", visited)
	}
}

func TestWalkSomeAssignsPerGroupContext(t *testing.T) {
	typeChecking := &Stmt{Kind: KindImport, Names: []Name{{Name: "heavy"}}}
	runtime := &Stmt{Kind: KindSimple}
	ifStmt := &Stmt{
		Kind:  KindIf,
		Test:  Expr{Kind: ExprName, Name: "TYPE_CHECKING"},
		Body:  []*Stmt{typeChecking},
		Orelse: []*Stmt{runtime},
	}

	ctxByStmt := make(map[*Stmt]any)
	Walk([]*Stmt{ifStmt}, false, VisitorFunc(func(s *Stmt, ctx any) Decision {
		ctxByStmt[s] = ctx
		if s.Kind == KindIf {
			return Some(
				Group{Stmts: s.Body, Ctx: true},
				Group{Stmts: s.Orelse, Ctx: false},
			)
		}
		return None()
	}))

	if ctxByStmt[typeChecking] != true {
		t.Errorf("type-checking branch ctx = %v, want true", ctxByStmt[typeChecking])
	}
	if ctxByStmt[runtime] != false {
		t.Errorf("runtime branch ctx = %v, want false", ctxByStmt[runtime])
	}
}

func TestIsTypeCheckingGuardRecognizesBothForms(t *testing.T) {
	bare := Expr{Kind: ExprName, Name: "TYPE_CHECKING"}
	attr := Expr{Kind: ExprAttribute, Name: "TYPE_CHECKING"}
	other := Expr{Kind: ExprName, Name: "DEBUG"}

	if !bare.IsTypeCheckingGuard() {
		t.Error("bare TYPE_CHECKING identifier should be recognized")
	}
	if !attr.IsTypeCheckingGuard() {
		t.Error("typing.TYPE_CHECKING attribute access should be recognized")
	}
	if other.IsTypeCheckingGuard() {
		t.Error("unrelated identifiers must not be recognized")
	}
}
