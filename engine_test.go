package stubdoc

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeStub(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestProvider() *MemProvider {
	return &MemProvider{
		Modules: map[string]*MemModule{
			"widget": {
				DocText: "Widgets for testing.",
				DocKind: DocText,
				Symbols: map[string]*MemSymbol{
					"Widget": {Class: true, DocText: "A widget.", Kind: DocText},
					"Widget.resize": {
						Routine: true, DocText: "Resize the widget.", Kind: DocText,
					},
					"make_widget": {
						Routine: true, DocText: "Build a widget.", Kind: DocText,
					},
				},
			},
		},
	}
}

const widgetStub = `class Widget:
    def resize(self) -> None: ...

def make_widget() -> Widget: ...
`

const widgetEnriched = `"""Widgets for testing."""

class Widget:
    """A widget."""
    def resize(self) -> None:
        """Resize the widget."""
        ...

def make_widget() -> Widget:
    """Build a widget."""
    ...
`

func TestRunOutputDir(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "widget.pyi", widgetStub)

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		OutputDir: out,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1, Enriched: 1}, stats)

	got, err := os.ReadFile(filepath.Join(out, "widget.pyi"))
	require.NoError(t, err)
	assert.Equal(t, widgetEnriched, string(got))
}

func TestRunInPlaceIsIdempotent(t *testing.T) {
	in := t.TempDir()
	path := writeStub(t, in, "widget.pyi", widgetStub)

	cfg := Config{InputDirs: []string{in}, InPlace: true}

	engine, err := New(newTestProvider(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Enriched)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, widgetEnriched, string(got))

	// A second run finds every docstring already present and changes nothing.
	engine, err = New(newTestProvider(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	stats, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1}, stats)

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, widgetEnriched, string(again))
}

func TestRunSerial(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "widget.pyi", widgetStub)

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		OutputDir: out,
	}, WithLogger(quietLogger()), WithParallel(false))
	require.NoError(t, err)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1, Enriched: 1}, stats)

	got, err := os.ReadFile(filepath.Join(out, "widget.pyi"))
	require.NoError(t, err)
	assert.Equal(t, widgetEnriched, string(got))
}

func TestFullyDocumentedFileUntouched(t *testing.T) {
	src := `"""Already documented."""

class Widget:
    """Docs."""

    def resize(self) -> None:
        """Docs."""
`
	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "widget.pyi", src)

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		OutputDir: out,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1}, stats)

	got, err := os.ReadFile(filepath.Join(out, "widget.pyi"))
	require.NoError(t, err)
	assert.Equal(t, src, string(got), "untouched files round-trip byte for byte")
}

func TestDeadBranchesAreNotEnriched(t *testing.T) {
	src := `import sys

if sys.version_info >= (4,):
    def future() -> None: ...
else:
    def present() -> None: ...
`
	p := &MemProvider{
		Version:  []int{3, 12},
		Platform: "linux",
		Modules: map[string]*MemModule{
			"guarded": {
				Symbols: map[string]*MemSymbol{
					"future":  {Routine: true, DocText: "From the future.", Kind: DocText},
					"present": {Routine: true, DocText: "Available now.", Kind: DocText},
				},
			},
		},
	}

	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "guarded.pyi", src)

	engine, err := New(p, Config{InputDirs: []string{in}, OutputDir: out},
		WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(out, "guarded.pyi"))
	require.NoError(t, err)
	assert.NotContains(t, string(got), "From the future.")
	assert.Contains(t, string(got), "Available now.")
}

func TestVersionOverrideBeatsProviderFacts(t *testing.T) {
	src := `import sys

if sys.version_info >= (4,):
    def future() -> None: ...
`
	p := &MemProvider{
		Version: []int{3, 12},
		Modules: map[string]*MemModule{
			"guarded": {
				Symbols: map[string]*MemSymbol{
					"future": {Routine: true, DocText: "From the future.", Kind: DocText},
				},
			},
		},
	}

	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "guarded.pyi", src)

	engine, err := New(p, Config{
		InputDirs:     []string{in},
		OutputDir:     out,
		PythonVersion: []int{4, 0},
	}, WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(out, "guarded.pyi"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "From the future.")
}

func TestUnknownModuleIsSkipped(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "mystery.pyi", "def f() -> None: ...\n")

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		OutputDir: out,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1, Skipped: 1}, stats)

	_, err = os.Stat(filepath.Join(out, "mystery.pyi"))
	assert.True(t, os.IsNotExist(err), "skipped files produce no output")
}

func TestUnparsableStubIsSkipped(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "widget.pyi", "def f(:\n")

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		OutputDir: out,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1, Skipped: 1}, stats)
}

func TestDiscoverModulePaths(t *testing.T) {
	in := t.TempDir()
	pkg := filepath.Join(in, "mypkg")
	writeStub(t, pkg, "__init__.pyi", "")
	writeStub(t, pkg, "sub.pyi", "")
	writeStub(t, pkg, "nested/__init__.pyi", "")
	writeStub(t, pkg, ".hidden/skipped.pyi", "")
	writeStub(t, pkg, "__pycache__/skipped.pyi", "")
	writeStub(t, pkg, "notes.txt", "")

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{pkg},
		InPlace:   true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	files, err := engine.discover()
	require.NoError(t, err)

	var modules []string
	for _, f := range files {
		modules = append(modules, f.modulePath)
	}
	assert.ElementsMatch(t, []string{"mypkg", "mypkg.sub", "mypkg.nested"}, modules)
}

func TestDiscoverFlatDirectory(t *testing.T) {
	in := t.TempDir()
	writeStub(t, in, "widget.pyi", "")
	writeStub(t, in, "shapes/circle.pyi", "")

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		InPlace:   true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	files, err := engine.discover()
	require.NoError(t, err)

	var modules []string
	for _, f := range files {
		modules = append(modules, f.modulePath)
	}
	assert.ElementsMatch(t, []string{"widget", "shapes.circle"}, modules)
}

func TestIgnoredModulesAreSkipped(t *testing.T) {
	in := t.TempDir()
	writeStub(t, in, "this.pyi", "")
	writeStub(t, in, "widget.pyi", "")

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		InPlace:   true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	files, err := engine.discover()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "widget", files[0].modulePath)
}

func TestBuiltinsOnly(t *testing.T) {
	p := newTestProvider()
	p.BuiltinSet = map[string]bool{"widget": true}
	p.Modules["json"] = &MemModule{}

	in := t.TempDir()
	writeStub(t, in, "widget.pyi", "")
	writeStub(t, in, "json.pyi", "")

	engine, err := New(p, Config{
		InputDirs:    []string{in},
		InPlace:      true,
		BuiltinsOnly: true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	files, err := engine.discover()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "widget", files[0].modulePath)
}

func TestIfNeededSkipsSymbolsWithSource(t *testing.T) {
	p := newTestProvider()
	mod := p.Modules["widget"]
	mod.Source = true
	mod.Symbols["make_widget"].Source = true

	in := t.TempDir()
	out := t.TempDir()
	writeStub(t, in, "widget.pyi", widgetStub)

	engine, err := New(p, Config{
		InputDirs: []string{in},
		OutputDir: out,
		IfNeeded:  true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(out, "widget.pyi"))
	require.NoError(t, err)
	assert.NotContains(t, string(got), "Widgets for testing.")
	assert.NotContains(t, string(got), "Build a widget.")
	assert.Contains(t, string(got), "A widget.")
	assert.Contains(t, string(got), "Resize the widget.")
}

func TestCommitFailureCountsAsFailed(t *testing.T) {
	in := t.TempDir()
	writeStub(t, in, "widget.pyi", widgetStub)

	// The output root is an existing file, so mirroring cannot create it.
	blocked := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		OutputDir: blocked,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err, "per-file failures never abort the run")
	assert.Equal(t, Stats{Files: 1, Failed: 1}, stats)
}

func TestInPlaceLeavesNoTempFiles(t *testing.T) {
	in := t.TempDir()
	writeStub(t, in, "widget.pyi", widgetStub)

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		InPlace:   true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(in)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "widget.pyi", entries[0].Name())
}

func TestInPlacePreservesPermissions(t *testing.T) {
	in := t.TempDir()
	path := writeStub(t, in, "widget.pyi", widgetStub)
	require.NoError(t, os.Chmod(path, 0o600))

	engine, err := New(newTestProvider(), Config{
		InputDirs: []string{in},
		InPlace:   true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
