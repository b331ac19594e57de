package docstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/stubdoc/internal/symdb"
)

func newTestProvider() *symdb.MemProvider {
	return &symdb.MemProvider{
		Modules: map[string]*symdb.MemModule{},
		RootHooks: map[string]string{
			"__init__": "Initialize self.  See help(type(self)) for accurate signature.",
			"__new__":  "Create and return a new object.  See help(type) for accurate signature.",
		},
	}
}

func TestModuleDoc(t *testing.T) {
	s := NewSelector(newTestProvider(), nil)

	mod := &symdb.MemModule{DocText: "Module summary.", DocKind: symdb.DocText}
	doc, ok := s.ModuleDoc(mod, "m")
	require.True(t, ok)
	assert.Equal(t, "Module summary.", doc)

	none := &symdb.MemModule{DocKind: symdb.DocNone}
	_, ok = s.ModuleDoc(none, "m")
	assert.False(t, ok)

	other := &symdb.MemModule{DocText: "x", DocKind: symdb.DocOther}
	_, ok = s.ModuleDoc(other, "m")
	assert.False(t, ok)
}

func TestClassDoc(t *testing.T) {
	s := NewSelector(newTestProvider(), nil)

	cls := &symdb.MemSymbol{Class: true, DocText: "A widget.", Kind: symdb.DocText}
	doc, ok := s.Select(nil, cls, "Widget", "Widget", KindClass)
	require.True(t, ok)
	assert.Equal(t, "A widget.", doc)

	// A metaclass-provided documentation descriptor is not this class's text.
	meta := &symdb.MemSymbol{Class: true, DocText: "", Kind: symdb.DocDescriptor}
	_, ok = s.Select(nil, meta, "Widget", "Widget", KindClass)
	assert.False(t, ok)
}

func TestFunctionDocRoutine(t *testing.T) {
	s := NewSelector(newTestProvider(), nil)

	fn := &symdb.MemSymbol{Routine: true, DocText: "Do the thing.", Kind: symdb.DocText}
	doc, ok := s.Select(nil, fn, "do_thing", "do_thing", KindFunction)
	require.True(t, ok)
	assert.Equal(t, "Do the thing.", doc)

	undocumented := &symdb.MemSymbol{Routine: true, Kind: symdb.DocNone}
	_, ok = s.Select(nil, undocumented, "quiet", "quiet", KindFunction)
	assert.False(t, ok)
}

func TestFunctionDocInheritedConstructorBoilerplate(t *testing.T) {
	p := newTestProvider()
	s := NewSelector(p, nil)

	owner := &symdb.MemSymbol{Class: true}
	inherited := &symdb.MemSymbol{
		Routine: true,
		DocText: p.RootHooks["__init__"],
		Kind:    symdb.DocText,
	}
	_, ok := s.Select(owner, inherited, "Widget.__init__", "__init__", KindFunction)
	assert.False(t, ok, "boilerplate inherited from the root object type")

	// The root object type itself keeps its constructor text.
	root := &symdb.MemSymbol{Class: true, RootObject: true}
	doc, ok := s.Select(root, inherited, "object.__init__", "__init__", KindFunction)
	require.True(t, ok)
	assert.Equal(t, p.RootHooks["__init__"], doc)

	// A genuine override keeps its own text.
	own := &symdb.MemSymbol{Routine: true, DocText: "Build a widget.", Kind: symdb.DocText}
	doc, ok = s.Select(owner, own, "Widget.__init__", "__init__", KindFunction)
	require.True(t, ok)
	assert.Equal(t, "Build a widget.", doc)
}

func TestFunctionDocDescriptorRawEntry(t *testing.T) {
	s := NewSelector(newTestProvider(), nil)

	// The resolved value is what the property returned; the raw namespace
	// entry is the property object carrying the text.
	owner := &symdb.MemSymbol{
		Class: true,
		Raw: map[string]*symdb.MemSymbol{
			"size": {DataDescriptor: true, DocText: "Current size.", Kind: symdb.DocText},
		},
	}
	value := &symdb.MemSymbol{Kind: symdb.DocNone, TypeKind: symdb.DocText}

	doc, ok := s.Select(owner, value, "Widget.size", "size", KindFunction)
	require.True(t, ok)
	assert.Equal(t, "Current size.", doc)
}

func TestFunctionDocInstanceText(t *testing.T) {
	s := NewSelector(newTestProvider(), nil)
	owner := &symdb.MemSymbol{Class: true}

	// Instance with its own text and an undocumented type.
	inst := &symdb.MemSymbol{DocText: "A singleton.", Kind: symdb.DocText, TypeKind: symdb.DocNone}
	doc, ok := s.Select(owner, inst, "Widget.instance", "instance", KindFunction)
	require.True(t, ok)
	assert.Equal(t, "A singleton.", doc)

	// The type's own text shadows the instance: nothing is selected.
	shadowed := &symdb.MemSymbol{DocText: "Per-instance.", Kind: symdb.DocText, TypeKind: symdb.DocText}
	_, ok = s.Select(owner, shadowed, "Widget.other", "other", KindFunction)
	assert.False(t, ok)

	// A class reached as a plain member contributes nothing here.
	cls := &symdb.MemSymbol{Class: true, DocText: "Nested.", Kind: symdb.DocText, TypeKind: symdb.DocNone}
	_, ok = s.Select(owner, cls, "Widget.Nested", "Nested", KindFunction)
	assert.False(t, ok)
}
