// Package pytree provides a lossless view of Python stub source built on
// tree-sitter. A Tree pairs the parsed syntax tree with the original bytes
// and an ordered set of byte-splice edits; rendering applies the edits and
// reproduces every untouched byte exactly.
package pytree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrParse reports malformed stub source.
var ErrParse = errors.New("pytree: parse error")

// Tree is one parsed stub file plus any pending edits.
type Tree struct {
	src   []byte
	tree  *sitter.Tree
	edits []edit
}

// edit replaces the byte range [start, end) with text.
// start == end is a pure insertion.
type edit struct {
	start, end uint32
	text       string
}

// Parse parses Python stub source. Creates a new parser per call for
// thread safety. Syntax errors anywhere in the tree fail the whole file.
func Parse(src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("%w: syntax error in input", ErrParse)
	}
	return &Tree{src: src, tree: tree}, nil
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Src returns the original source bytes.
func (t *Tree) Src() []byte {
	return t.src
}

// Text returns the source text covered by node.
func (t *Tree) Text(node *sitter.Node) string {
	return node.Content(t.src)
}

// Insert records a pure insertion of text at the given byte offset.
func (t *Tree) Insert(at uint32, text string) {
	t.edits = append(t.edits, edit{start: at, end: at, text: text})
}

// Replace records a replacement of the byte range [start, end) with text.
func (t *Tree) Replace(start, end uint32, text string) {
	t.edits = append(t.edits, edit{start: start, end: end, text: text})
}

// Edited reports whether any edits have been recorded.
func (t *Tree) Edited() bool {
	return len(t.edits) > 0
}

// Render applies all recorded edits to the original source. Edits must not
// overlap; overlapping edits indicate a rewriter bug and return an error.
func (t *Tree) Render() ([]byte, error) {
	if len(t.edits) == 0 {
		out := make([]byte, len(t.src))
		copy(out, t.src)
		return out, nil
	}

	edits := make([]edit, len(t.edits))
	copy(edits, t.edits)
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end < edits[j].end
	})

	var buf bytes.Buffer
	var pos uint32
	for _, e := range edits {
		if e.start < pos {
			return nil, fmt.Errorf("pytree: overlapping edits at byte %d", e.start)
		}
		if e.end > uint32(len(t.src)) {
			return nil, fmt.Errorf("pytree: edit past end of source (%d > %d)", e.end, len(t.src))
		}
		buf.Write(t.src[pos:e.start])
		buf.WriteString(e.text)
		pos = e.end
	}
	buf.Write(t.src[pos:])
	return buf.Bytes(), nil
}
