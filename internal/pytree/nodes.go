package pytree

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node type names from the tree-sitter Python grammar.
const (
	TypeModule       = "module"
	TypeClassDef     = "class_definition"
	TypeFunctionDef  = "function_definition"
	TypeBlock        = "block"
	TypeExprStmt     = "expression_statement"
	TypeString       = "string"
	TypeComment      = "comment"
	TypeIfStmt       = "if_statement"
	TypeElifClause   = "elif_clause"
	TypeElseClause   = "else_clause"
	TypeComparison   = "comparison_operator"
	TypeBoolOp       = "boolean_operator"
	TypeNotOp        = "not_operator"
	TypeParenExpr    = "parenthesized_expression"
	TypeAttribute    = "attribute"
	TypeTuple        = "tuple"
	TypeInteger      = "integer"
	TypeStringStart  = "string_start"
	TypeStringMiddle = "string_content"
)

// Declarations returns all class and function definitions under root in
// document order (pre-order, depth-first). Definitions wrapped in
// decorated_definition nodes are reached through normal descent.
func Declarations(root *sitter.Node) []*sitter.Node {
	var decls []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == TypeClassDef || n.Type() == TypeFunctionDef {
			decls = append(decls, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return decls
}

// DeclName returns a declaration's name, or "" if it has none.
func (t *Tree) DeclName(decl *sitter.Node) string {
	name := decl.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return t.Text(name)
}

// Body returns a declaration's body block, or nil.
func Body(decl *sitter.Node) *sitter.Node {
	body := decl.ChildByFieldName("body")
	if body == nil || body.Type() != TypeBlock {
		return nil
	}
	return body
}

// firstStatement returns the first named child of a block or module that is
// not a comment.
func firstStatement(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != TypeComment {
			return c
		}
	}
	return nil
}

// isStringExpr reports whether a statement is a bare string expression.
func isStringExpr(stmt *sitter.Node) bool {
	if stmt == nil || stmt.Type() != TypeExprStmt {
		return false
	}
	return stmt.NamedChildCount() > 0 && stmt.NamedChild(0).Type() == TypeString
}

// HasLeadingDocstring reports whether the first statement of a block is a
// string-literal expression.
func (t *Tree) HasLeadingDocstring(body *sitter.Node) bool {
	return isStringExpr(firstStatement(body))
}

// HasModuleDocstring reports whether the module's first statement is a
// string-literal expression.
func (t *Tree) HasModuleDocstring() bool {
	return isStringExpr(firstStatement(t.Root()))
}

// LineStart returns the byte offset of the start of the line containing pos.
func (t *Tree) LineStart(pos uint32) uint32 {
	i := pos
	for i > 0 && t.src[i-1] != '\n' {
		i--
	}
	return i
}

// LineIndent returns the whitespace run at the start of the line containing
// pos.
func (t *Tree) LineIndent(pos uint32) string {
	start := t.LineStart(pos)
	i := start
	for i < uint32(len(t.src)) && (t.src[i] == ' ' || t.src[i] == '\t') {
		i++
	}
	return string(t.src[start:i])
}

// DefaultIndent infers the module's indentation unit from the first indented
// block, falling back to four spaces.
func (t *Tree) DefaultIndent() string {
	var found string
	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.Type() == TypeBlock && n.Parent() != nil {
			parent := n.Parent()
			if n.StartPoint().Row > parent.StartPoint().Row {
				outer := t.LineIndent(parent.StartByte())
				inner := t.LineIndent(n.StartByte())
				if len(inner) > len(outer) && inner[:len(outer)] == outer {
					found = inner[len(outer):]
					return true
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}
		return false
	}
	walk(t.Root())
	if found == "" {
		return "    "
	}
	return found
}

// StringText returns the text content of a string literal node, without
// quotes or prefix.
func (t *Tree) StringText(str *sitter.Node) string {
	for i := 0; i < int(str.NamedChildCount()); i++ {
		c := str.NamedChild(i)
		if c.Type() == TypeStringMiddle {
			return t.Text(c)
		}
	}
	return ""
}
