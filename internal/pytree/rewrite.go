package pytree

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// declColon returns the ":" token that opens a declaration's suite.
func declColon(decl *sitter.Node) *sitter.Node {
	for i := int(decl.ChildCount()) - 1; i >= 0; i-- {
		c := decl.Child(i)
		if c.Type() == ":" {
			return c
		}
	}
	return nil
}

// firstChildBelow returns the first child of body that starts on a line
// below row, or nil when the whole suite sits on the header line.
func firstChildBelow(body *sitter.Node, row uint32) *sitter.Node {
	for i := 0; i < int(body.ChildCount()); i++ {
		c := body.Child(i)
		if c.StartPoint().Row > row {
			return c
		}
	}
	return nil
}

// BodyIndent returns the indentation string for a docstring inserted into a
// declaration's body: the body's own line indent for an indented block, or
// the header line's indent plus one indent unit for a single-line suite.
// Returns "" when the declaration has no usable body.
func (t *Tree) BodyIndent(decl *sitter.Node) string {
	body := Body(decl)
	colon := declColon(decl)
	if body == nil || colon == nil {
		return ""
	}
	if first := firstChildBelow(body, colon.StartPoint().Row); first != nil {
		return t.LineIndent(first.StartByte())
	}
	return t.LineIndent(decl.StartByte()) + t.DefaultIndent()
}

// InsertDocstring splices a docstring statement at the start of a
// declaration's body. An indented block keeps every existing line untouched;
// a single-line suite is converted to an indented block with each original
// statement on its own line. Returns false when the body shape cannot take
// a docstring; the tree is left unchanged in that case.
func (t *Tree) InsertDocstring(decl *sitter.Node, literal string) bool {
	body := Body(decl)
	colon := declColon(decl)
	if body == nil || colon == nil {
		return false
	}

	if first := firstChildBelow(body, colon.StartPoint().Row); first != nil {
		pos := t.LineStart(first.StartByte())
		indent := t.LineIndent(first.StartByte())
		t.Insert(pos, indent+literal+"\n")
		return true
	}

	// Single-line suite: "def f(): ..." becomes a block whose first line is
	// the docstring, with the original statements following one per line.
	indent := t.LineIndent(decl.StartByte()) + t.DefaultIndent()
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString(literal)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		sb.WriteString("\n")
		sb.WriteString(indent)
		sb.WriteString(t.Text(body.NamedChild(i)))
	}
	t.Replace(colon.EndByte(), body.EndByte(), sb.String())
	return true
}

// InsertModuleDocstring splices literal as the module's first statement. A
// blank line separates it from any leading header or shebang block and from
// the rest of the module. An empty module gets the docstring appended with a
// trailing blank line instead.
func (t *Tree) InsertModuleDocstring(literal string) {
	first := firstStatement(t.Root())
	if first == nil {
		// No statements. Append after any comment block.
		if len(t.src) == 0 {
			t.Insert(0, literal+"\n\n")
			return
		}
		text := "\n" + literal + "\n\n"
		if t.src[len(t.src)-1] != '\n' {
			text = "\n" + text
		}
		t.Insert(uint32(len(t.src)), text)
		return
	}

	pos := t.LineStart(first.StartByte())
	text := literal + "\n\n"
	if pos > 0 {
		// Blank separator after the header block.
		text = "\n" + text
	}
	t.Insert(pos, text)
}
