package analysis

import (
	"errors"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/stubdoc/internal/pytree"
)

// ErrUnresolved reports a declaration whose qualified name cannot be built
// from its scope chain. Not a defect: the caller skips the declaration.
var ErrUnresolved = errors.New("analysis: unresolvable scope chain")

// QualifiedName resolves a declaration to its dotted module-relative name by
// walking the enclosing scope chain. Class scopes prepend their own name; the
// module scope terminates the walk. A class without a recoverable name, or a
// declaration nested inside a function body, is unresolvable: such symbols
// cannot be reached by a dotted attribute path.
func QualifiedName(t *pytree.Tree, decl *sitter.Node) (string, error) {
	name := t.DeclName(decl)
	if name == "" {
		return "", ErrUnresolved
	}

	qual := name
	for n := decl.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case pytree.TypeClassDef:
			cls := t.DeclName(n)
			if cls == "" {
				return "", ErrUnresolved
			}
			qual = cls + "." + qual
		case pytree.TypeFunctionDef:
			return "", ErrUnresolved
		case pytree.TypeModule:
			return qual, nil
		}
	}
	return qual, nil
}
