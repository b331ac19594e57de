package pytree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse([]byte(src))
	require.NoError(t, err)
	return tree
}

func TestParseRejectsSyntaxErrors(t *testing.T) {
	_, err := Parse([]byte("def f(:\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestRenderWithoutEditsIsIdentity(t *testing.T) {
	src := "import sys\n\nclass C:\n    x: int  # trailing\n\t\n"
	tree := parseSource(t, src)

	out, err := tree.Render()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
	assert.False(t, tree.Edited())
}

func TestRenderAppliesEditsInOrder(t *testing.T) {
	tree := parseSource(t, "a = 1\nb = 2\n")
	tree.Insert(6, "# mid\n")
	tree.Insert(0, "# top\n")

	out, err := tree.Render()
	require.NoError(t, err)
	assert.Equal(t, "# top\na = 1\n# mid\nb = 2\n", string(out))
	assert.True(t, tree.Edited())
}

func TestRenderRejectsOverlappingEdits(t *testing.T) {
	tree := parseSource(t, "a = 1\n")
	tree.Replace(0, 3, "x")
	tree.Replace(2, 5, "y")

	_, err := tree.Render()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlapping")
}

func TestDeclarations(t *testing.T) {
	src := `class A:
    def m(self): ...

    @property
    def p(self): ...

def top(): ...
`
	tree := parseSource(t, src)
	decls := Declarations(tree.Root())
	require.Len(t, decls, 4)

	var names []string
	for _, d := range decls {
		names = append(names, tree.DeclName(d))
	}
	assert.Equal(t, []string{"A", "m", "p", "top"}, names)
}

func TestDocstringDetection(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		module    bool
		declHasIt bool
	}{
		{
			name:      "both present",
			src:       "\"\"\"Module.\"\"\"\n\ndef f():\n    \"\"\"Doc.\"\"\"\n",
			module:    true,
			declHasIt: true,
		},
		{
			name:      "neither present",
			src:       "import sys\n\ndef f():\n    return 1\n",
			module:    false,
			declHasIt: false,
		},
		{
			name:      "comment is not a docstring",
			src:       "# header\n\ndef f():\n    # note\n    return 1\n",
			module:    false,
			declHasIt: false,
		},
		{
			name:      "single quoted counts",
			src:       "'mod'\n\ndef f():\n    'doc'\n",
			module:    true,
			declHasIt: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parseSource(t, tt.src)
			assert.Equal(t, tt.module, tree.HasModuleDocstring())

			decls := Declarations(tree.Root())
			require.NotEmpty(t, decls)
			body := Body(decls[0])
			require.NotNil(t, body)
			assert.Equal(t, tt.declHasIt, tree.HasLeadingDocstring(body))
		})
	}
}

func TestDefaultIndent(t *testing.T) {
	assert.Equal(t, "  ", parseSource(t, "def f():\n  return 1\n").DefaultIndent())
	assert.Equal(t, "\t", parseSource(t, "def f():\n\treturn 1\n").DefaultIndent())
	assert.Equal(t, "    ", parseSource(t, "x = 1\n").DefaultIndent())
}

func TestInsertDocstringIndentedBlock(t *testing.T) {
	src := `class C:
    def m(self):
        return 1
`
	tree := parseSource(t, src)
	decls := Declarations(tree.Root())
	require.Len(t, decls, 2)

	ok := tree.InsertDocstring(decls[1], `"""Method."""`)
	require.True(t, ok)

	out, err := tree.Render()
	require.NoError(t, err)
	want := `class C:
    def m(self):
        """Method."""
        return 1
`
	assert.Equal(t, want, string(out))
}

func TestInsertDocstringSingleLineSuite(t *testing.T) {
	tree := parseSource(t, "def f(x): ...\n")
	decls := Declarations(tree.Root())
	require.Len(t, decls, 1)

	ok := tree.InsertDocstring(decls[0], `"""Doc."""`)
	require.True(t, ok)

	out, err := tree.Render()
	require.NoError(t, err)
	want := "def f(x):\n    \"\"\"Doc.\"\"\"\n    ...\n"
	assert.Equal(t, want, string(out))
}

func TestInsertDocstringSkipsTrailingComment(t *testing.T) {
	src := "def f():  # keep\n    return 1\n"
	tree := parseSource(t, src)
	decls := Declarations(tree.Root())
	require.Len(t, decls, 1)

	ok := tree.InsertDocstring(decls[0], `"""Doc."""`)
	require.True(t, ok)

	out, err := tree.Render()
	require.NoError(t, err)
	assert.Equal(t, "def f():  # keep\n    \"\"\"Doc.\"\"\"\n    return 1\n", string(out))
}

func TestBodyIndent(t *testing.T) {
	src := `class C:
    def m(self):
        return 1

    def oneliner(self): ...
`
	tree := parseSource(t, src)
	decls := Declarations(tree.Root())
	require.Len(t, decls, 3)

	assert.Equal(t, "    ", tree.BodyIndent(decls[0]))
	assert.Equal(t, "        ", tree.BodyIndent(decls[1]))
	assert.Equal(t, "        ", tree.BodyIndent(decls[2]))
}

func TestInsertModuleDocstring(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "before first statement",
			src:  "import sys\n",
			want: "\"\"\"Doc.\"\"\"\n\nimport sys\n",
		},
		{
			name: "after header comments",
			src:  "# header\n# more\nimport sys\n",
			want: "# header\n# more\n\n\"\"\"Doc.\"\"\"\n\nimport sys\n",
		},
		{
			name: "empty file",
			src:  "",
			want: "\"\"\"Doc.\"\"\"\n\n",
		},
		{
			name: "comments only",
			src:  "# only comments\n",
			want: "# only comments\n\n\"\"\"Doc.\"\"\"\n\n",
		},
		{
			name: "comments only without newline",
			src:  "# only comments",
			want: "# only comments\n\n\"\"\"Doc.\"\"\"\n\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parseSource(t, tt.src)
			tree.InsertModuleDocstring(`"""Doc."""`)

			out, err := tree.Render()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestStringText(t *testing.T) {
	tree := parseSource(t, "x = \"hello\"\n")
	root := tree.Root()
	expr := root.NamedChild(0)
	str := expr.NamedChild(0).ChildByFieldName("right")
	require.NotNil(t, str)
	require.Equal(t, TypeString, str.Type())
	assert.Equal(t, "hello", tree.StringText(str))
}
