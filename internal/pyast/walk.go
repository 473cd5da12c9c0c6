package pyast

// Decision is what a Visitor returns for one statement: whether (and how) to
// recurse into its nested statement blocks, per §4.D.
type Decision struct {
	recurse  recurseMode
	children []Group
}

type recurseMode int

const (
	modeAll recurseMode = iota
	modeNone
	modeSome
)

// Group pairs a nested statement block with the context value its own
// statements should be visited under.
type Group struct {
	Stmts []*Stmt
	Ctx   any
}

// All recurses into every nested block of the current statement (every
// group of a KindCompound node, or both Body and Orelse of a KindIf node),
// carrying the same context value the current statement was visited with.
func All() Decision { return Decision{recurse: modeAll} }

// None does not recurse into the current statement's nested blocks at all.
func None() Decision { return Decision{recurse: modeNone} }

// Some recurses only into the given groups, each under its own context.
func Some(groups ...Group) Decision { return Decision{recurse: modeSome, children: groups} }

// Visitor is called once per statement encountered by Walk.
type Visitor interface {
	Visit(stmt *Stmt, ctx any) Decision
}

// VisitorFunc adapts a plain function to a Visitor.
type VisitorFunc func(stmt *Stmt, ctx any) Decision

// Visit implements Visitor.
func (f VisitorFunc) Visit(stmt *Stmt, ctx any) Decision { return f(stmt, ctx) }

// defaultGroups returns every nested statement block, under the current
// context, for the "All" recursion case.
func defaultGroups(s *Stmt, ctx any) []Group {
	switch s.Kind {
	case KindIf:
		return []Group{{Stmts: s.Body, Ctx: ctx}, {Stmts: s.Orelse, Ctx: ctx}}
	case KindCompound:
		groups := make([]Group, len(s.Children))
		for i, c := range s.Children {
			groups[i] = Group{Stmts: c, Ctx: ctx}
		}
		return groups
	default:
		return nil
	}
}

// Walk depth-first visits every statement in stmts, starting with the given
// context value, dispatching each one to v and recursing according to the
// returned Decision.
func Walk(stmts []*Stmt, ctx any, v Visitor) {
	for _, s := range stmts {
		d := v.Visit(s, ctx)
		switch d.recurse {
		case modeNone:
			// do not descend
		case modeSome:
			for _, g := range d.children {
				Walk(g.Stmts, g.Ctx, v)
			}
		default: // modeAll
			for _, g := range defaultGroups(s, ctx) {
				Walk(g.Stmts, g.Ctx, v)
			}
		}
	}
}
