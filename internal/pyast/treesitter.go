package pyast

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// UnableToParseSourceFileError is §7's UnableToParseSourceFile kind: the
// tree-sitter parser could not produce a tree for path.
type UnableToParseSourceFileError struct {
	Path  string
	Cause error
}

func (e *UnableToParseSourceFileError) Error() string {
	return fmt.Sprintf("unable to parse %s: %v", e.Path, e.Cause)
}

func (e *UnableToParseSourceFileError) Unwrap() error { return e.Cause }

// Parser implements the AST-parser contract of §6 by wrapping a pooled,
// mutex-guarded tree-sitter Python parser — tree-sitter parsers are not
// thread-safe, so every Parse call is serialized, matching the teacher's
// TreeSitterParser. The pool holds exactly one parser because a single
// import-extraction pass rarely contends hard enough on parsing itself to
// warrant more than one; the fan-out happens one caller goroutine per file,
// serialized only at the Parse call.
type Parser struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

// NewParser creates a Parser configured for the Python grammar.
func NewParser() (*Parser, error) {
	p := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("set python language: %w", err)
	}
	return &Parser{parser: p}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// Parse converts Python source into the module-level Stmt list §4.D's
// visitor walks. path is used only for error context.
func (p *Parser) Parse(path string, source []byte) ([]*Stmt, error) {
	p.mu.Lock()
	tree := p.parser.Parse(source, nil)
	p.mu.Unlock()

	if tree == nil {
		return nil, &UnableToParseSourceFileError{Path: path, Cause: fmt.Errorf("tree-sitter returned a nil tree")}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &UnableToParseSourceFileError{Path: path, Cause: fmt.Errorf("empty parse tree")}
	}
	if root.HasError() {
		return nil, &UnableToParseSourceFileError{Path: path, Cause: fmt.Errorf("syntax error")}
	}

	return convertBlock(root, source), nil
}

// line returns the 1-based source row of node's start.
func line(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func nodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// convertBlock converts every named child statement of a block-like node
// (module, block) into our generic Stmt shape.
func convertBlock(block *tree_sitter.Node, source []byte) []*Stmt {
	var out []*Stmt
	count := block.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := block.NamedChild(i)
		if child == nil {
			continue
		}
		if s := convertStmt(child, source); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func convertStmt(node *tree_sitter.Node, source []byte) *Stmt {
	switch node.Kind() {
	case "import_statement":
		return convertImport(node, source)
	case "import_from_statement":
		return convertImportFrom(node, source)
	case "if_statement":
		return convertIf(node, source)
	case "function_definition", "class_definition", "for_statement",
		"while_statement", "with_statement", "try_statement",
		"match_statement", "async_function_definition", "async_for_statement",
		"async_with_statement":
		return convertCompound(node, source)
	default:
		return &Stmt{Kind: KindSimple, Line: line(node)}
	}
}

// convertImport handles "import a, b.c as d".
func convertImport(node *tree_sitter.Node, source []byte) *Stmt {
	s := &Stmt{Kind: KindImport, Line: line(node)}
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			s.Names = append(s.Names, Name{Name: nodeText(child, source), Line: line(child)})
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				s.Names = append(s.Names, Name{Name: nodeText(nameNode, source), Line: line(nameNode)})
			}
		}
	}
	return s
}

// convertImportFrom handles "from <prefix> import a, b as c" and
// "from <prefix> import *".
func convertImportFrom(node *tree_sitter.Node, source []byte) *Stmt {
	s := &Stmt{Kind: KindImportFrom, Line: line(node)}

	modNode := node.ChildByFieldName("module_name")
	if modNode == nil {
		count := node.NamedChildCount()
		for i := uint(0); i < count; i++ {
			child := node.NamedChild(i)
			if child != nil && (child.Kind() == "dotted_name" || child.Kind() == "relative_import") {
				modNode = child
				break
			}
		}
	}
	if modNode != nil {
		level, module := splitModulePrefix(modNode, source)
		s.Level = level
		s.Module = module
	}

	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil || (modNode != nil && child.StartByte() == modNode.StartByte() && child.EndByte() == modNode.EndByte()) {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			s.Names = append(s.Names, Name{Name: "*", Line: line(child)})
		case "dotted_name":
			s.Names = append(s.Names, Name{Name: nodeText(child, source), Line: line(child)})
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				s.Names = append(s.Names, Name{Name: nodeText(nameNode, source), Line: line(nameNode)})
			}
		}
	}
	return s
}

// splitModulePrefix separates a from-import's module reference into its
// leading-dot count and the dotted remainder, handling both a plain
// dotted_name (level 0) and a relative_import node (import_prefix + an
// optional dotted_name).
func splitModulePrefix(node *tree_sitter.Node, source []byte) (level int, module string) {
	if node.Kind() == "dotted_name" {
		return 0, nodeText(node, source)
	}
	// relative_import: children are one "import_prefix" (the dots) and an
	// optional trailing dotted_name.
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_prefix":
			level = len(nodeText(child, source))
		case "dotted_name":
			module = nodeText(child, source)
		}
	}
	if level == 0 {
		// Fall back to counting leading dots in the raw text when the
		// grammar didn't expose a separate import_prefix node.
		text := nodeText(node, source)
		for _, r := range text {
			if r != '.' {
				break
			}
			level++
		}
	}
	return level, module
}

// convertIf handles "if <test>: <body> else: <orelse>". Only a single
// else_clause is modeled, matching §4.E's scope; an elif chain is treated as
// a nested if inside Orelse when tree-sitter represents it that way, and
// otherwise falls back to being visited generically.
func convertIf(node *tree_sitter.Node, source []byte) *Stmt {
	s := &Stmt{Kind: KindIf, Line: line(node)}

	if cond := node.ChildByFieldName("condition"); cond != nil {
		s.Test = convertExpr(cond, source)
	}
	if cons := node.ChildByFieldName("consequence"); cons != nil {
		s.Body = convertBlock(cons, source)
	}

	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "else_clause":
			if body := child.ChildByFieldName("body"); body != nil {
				s.Orelse = append(s.Orelse, convertBlock(body, source)...)
			}
		case "elif_clause":
			// Represent the elif as a single nested if so its own imports
			// are still reachable, conservatively under the else-branch
			// (non-type-checking) context.
			if elifStmt := convertElif(child, source); elifStmt != nil {
				s.Orelse = append(s.Orelse, elifStmt)
			}
		}
	}
	return s
}

func convertElif(node *tree_sitter.Node, source []byte) *Stmt {
	s := &Stmt{Kind: KindIf, Line: line(node)}
	if cond := node.ChildByFieldName("condition"); cond != nil {
		s.Test = convertExpr(cond, source)
	}
	if cons := node.ChildByFieldName("consequence"); cons != nil {
		s.Body = convertBlock(cons, source)
	}
	return s
}

// convertExpr handles just enough expression shape to detect the
// TYPE_CHECKING guard: a bare identifier, or an attribute access whose final
// name is TYPE_CHECKING.
func convertExpr(node *tree_sitter.Node, source []byte) Expr {
	switch node.Kind() {
	case "identifier":
		return Expr{Kind: ExprName, Name: nodeText(node, source)}
	case "attribute":
		if attr := node.ChildByFieldName("attribute"); attr != nil {
			return Expr{Kind: ExprAttribute, Name: nodeText(attr, source)}
		}
	}
	return Expr{Kind: ExprOther}
}

// convertCompound gathers every nested statement block of a compound
// statement (function/class bodies, loop body+else, try body/handlers/
// else/finally, match case bodies, with bodies) so §4.D can visit them all
// under "All".
func convertCompound(node *tree_sitter.Node, source []byte) *Stmt {
	s := &Stmt{Kind: KindCompound, Line: line(node)}

	addBlock := func(fieldName string) {
		if b := node.ChildByFieldName(fieldName); b != nil {
			s.Children = append(s.Children, convertBlock(b, source))
		}
	}

	// clauseBody finds the block of an else/except/finally clause: its "body"
	// field where the grammar names one, otherwise its last block child.
	clauseBody := func(clause *tree_sitter.Node) *tree_sitter.Node {
		if b := clause.ChildByFieldName("body"); b != nil {
			return b
		}
		var body *tree_sitter.Node
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			if c := clause.NamedChild(i); c != nil && c.Kind() == "block" {
				body = c
			}
		}
		return body
	}

	switch node.Kind() {
	case "function_definition", "async_function_definition", "class_definition":
		addBlock("body")
	case "for_statement", "async_for_statement", "while_statement":
		addBlock("body")
		if alt := node.ChildByFieldName("alternative"); alt != nil { // the loop's "else" clause
			if b := clauseBody(alt); b != nil {
				s.Children = append(s.Children, convertBlock(b, source))
			}
		}
	case "with_statement", "async_with_statement":
		addBlock("body")
	case "try_statement":
		count := node.NamedChildCount()
		for i := uint(0); i < count; i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "block":
				s.Children = append(s.Children, convertBlock(child, source))
			case "except_clause", "except_group_clause", "else_clause", "finally_clause":
				if b := clauseBody(child); b != nil {
					s.Children = append(s.Children, convertBlock(b, source))
				}
			}
		}
	case "match_statement":
		// The case clauses sit inside the statement's body block.
		cases := node
		if b := node.ChildByFieldName("body"); b != nil {
			cases = b
		}
		count := cases.NamedChildCount()
		for i := uint(0); i < count; i++ {
			child := cases.NamedChild(i)
			if child != nil && child.Kind() == "case_clause" {
				if b := child.ChildByFieldName("consequence"); b != nil {
					s.Children = append(s.Children, convertBlock(b, source))
				}
			}
		}
	}

	return s
}
