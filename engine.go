package stubdoc

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/stubdoc/internal/analysis"
	"github.com/jward/stubdoc/internal/docstring"
	"github.com/jward/stubdoc/internal/logx"
	"github.com/jward/stubdoc/internal/pytree"
	"github.com/jward/stubdoc/internal/symdb"
)

// Engine orchestrates the enrichment pipeline: stub discovery, reachability
// analysis, per-declaration documentation selection, rewriting, and commit.
type Engine struct {
	provider symdb.Provider
	loader   *symdb.Loader
	selector *docstring.Selector
	cfg      Config
	facts    analysis.Facts
	log      *slog.Logger

	// useParallel enables the per-file worker pool.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the Engine's logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithParallel controls the per-file worker pool. When true (default), Run
// processes files concurrently; files are independent and share no mutable
// state. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// New creates an Engine over a live-symbol provider. Config overrides take
// precedence over the version and platform facts recorded by the provider.
func New(provider symdb.Provider, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stubdoc: config: %w", err)
	}

	e := &Engine{
		provider:    provider,
		loader:      symdb.NewLoader(provider),
		cfg:         cfg,
		log:         slog.Default(),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.selector = docstring.NewSelector(provider, e.log)

	e.facts = analysis.Facts{Version: cfg.PythonVersion, Platform: cfg.Platform}
	if version, platform, ok := provider.RuntimeFacts(); ok {
		if len(e.facts.Version) == 0 {
			e.facts.Version = version
		}
		if e.facts.Platform == "" {
			e.facts.Platform = platform
		}
	}

	return e, nil
}

// Stats summarizes one run.
type Stats struct {
	// Files is the number of stub files discovered and queued.
	Files int
	// Enriched is the number of files whose output gained documentation.
	Enriched int
	// Skipped is the number of files skipped before rewriting (load or
	// parse failure).
	Skipped int
	// Failed is the number of files whose commit failed.
	Failed int
}

// stubFile is one queued stub: its dotted module path, absolute source path,
// and the relative path used for mirrored output.
type stubFile struct {
	modulePath string
	path       string
	relPath    string
}

// Run discovers and processes every stub under the configured input
// directories. Per-file failures are logged and never abort the run; the
// returned error covers discovery only.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	queue, err := e.discover()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Files: len(queue)}
	if e.useParallel {
		e.runParallel(ctx, queue, &stats)
	} else {
		for _, f := range queue {
			e.runOne(ctx, f, &stats, nil)
		}
	}
	e.log.Info("run complete",
		"files", stats.Files, "enriched", stats.Enriched,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// discover walks the input directories and builds the work queue.
func (e *Engine) discover() ([]stubFile, error) {
	ignored := e.cfg.ignored()

	var builtins map[string]bool
	if e.cfg.BuiltinsOnly {
		var err error
		builtins, err = e.provider.Builtins()
		if err != nil {
			return nil, fmt.Errorf("stubdoc: list builtins: %w", err)
		}
	}

	var queue []stubFile
	for _, inputDir := range e.cfg.InputDirs {
		files, err := e.discoverDir(inputDir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if ignored[f.modulePath] {
				continue
			}
			if e.cfg.BuiltinsOnly && !builtins[f.modulePath] {
				continue
			}
			queue = append(queue, f)
		}
	}
	return queue, nil
}

// discoverDir walks one input directory. When the directory itself is a
// package (contains __init__.py or __init__.pyi), its own name becomes the
// leading module path segment.
func (e *Engine) discoverDir(inputDir string) ([]stubFile, error) {
	includeRoot := false
	for _, init := range []string{"__init__.py", "__init__" + StubSuffix} {
		if _, err := os.Stat(filepath.Join(inputDir, init)); err == nil {
			includeRoot = true
			break
		}
	}

	root := ""
	if includeRoot {
		root = filepath.Base(inputDir)
		if root == "." || root == ".." || root == string(filepath.Separator) {
			abs, err := filepath.Abs(inputDir)
			if err != nil {
				return nil, fmt.Errorf("stubdoc: resolve %q: %w", inputDir, err)
			}
			root = filepath.Base(abs)
		}
	}

	var files []stubFile
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != inputDir && (strings.HasPrefix(name, ".") || name == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, StubSuffix) {
			return nil
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		if root != "" {
			rel = filepath.Join(root, rel)
		}

		modulePath := strings.TrimSuffix(rel, StubSuffix)
		if filepath.Base(modulePath) == "__init__" {
			modulePath = filepath.Dir(modulePath)
			if modulePath == "." {
				modulePath = ""
			}
		}
		modulePath = strings.ReplaceAll(modulePath, string(filepath.Separator), ".")
		if modulePath == "" {
			logx.Trace(e.log, "cannot derive module path", "file", path)
			return nil
		}

		files = append(files, stubFile{modulePath: modulePath, path: path, relPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stubdoc: walk %s: %w", inputDir, err)
	}
	return files, nil
}

// runOne processes a single file and records the outcome. statsMu guards
// stats when non-nil (parallel mode).
func (e *Engine) runOne(ctx context.Context, f stubFile, stats *Stats, record func(func())) {
	enriched, skipped, err := e.processFile(ctx, f)
	update := func() {
		switch {
		case err != nil:
			stats.Failed++
		case skipped:
			stats.Skipped++
		case enriched:
			stats.Enriched++
		}
	}
	if record != nil {
		record(update)
	} else {
		update()
	}
}

// processFile runs the full pipeline for one stub. Returns enriched=true
// when the committed output gained documentation, skipped=true when the file
// was abandoned before rewriting (load or parse failure), and a non-nil
// error only for commit failures.
func (e *Engine) processFile(ctx context.Context, f stubFile) (enriched, skipped bool, err error) {
	log := e.log.With("file", f.path, "module", f.modulePath)

	mod, err := e.loader.Load(ctx, f.modulePath)
	if err != nil {
		log.Warn("could not load module", "error", err)
		return false, true, nil
	}

	src, err := os.ReadFile(f.path)
	if err != nil {
		log.Error("could not read stub", "error", err)
		return false, true, nil
	}

	tree, err := pytree.Parse(src)
	if err != nil {
		log.Error("could not parse stub", "error", err)
		return false, true, nil
	}

	log.Info("processing")

	reach := analysis.NewReachability(e.facts, log)
	reach.Analyze(tree)

	e.enrich(tree, mod, f.modulePath, reach, log)

	out, err := tree.Render()
	if err != nil {
		log.Error("could not render stub", "error", err)
		return false, true, nil
	}

	if err := e.commit(f, out); err != nil {
		log.Error("could not write stub", "error", err)
		return false, false, err
	}
	return tree.Edited(), false, nil
}

// enrich applies the documentation passes: the module docstring first, then
// every declaration in document order.
func (e *Engine) enrich(tree *pytree.Tree, mod symdb.Module, modulePath string, reach *analysis.Reachability, log *slog.Logger) {
	e.enrichModule(tree, mod, modulePath, log)

	for _, decl := range pytree.Declarations(tree.Root()) {
		e.enrichDecl(tree, mod, modulePath, decl, reach, log)
	}
}

func (e *Engine) enrichModule(tree *pytree.Tree, mod symdb.Module, modulePath string, log *slog.Logger) {
	if tree.HasModuleDocstring() {
		logx.Trace(log, "module docstring already exists, skipping")
		return
	}
	if e.cfg.IfNeeded && mod.HasSource() {
		return
	}

	text, ok := e.selector.ModuleDoc(mod, modulePath)
	if !ok {
		logx.Trace(log, "could not find module documentation")
		return
	}
	text = docstring.Clean(text)
	if text == "" {
		return
	}

	literal := docstring.Quote(text, "")
	logx.Trace(log, "inserting module docstring", "literal", literal)
	tree.InsertModuleDocstring(literal)
}

func (e *Engine) enrichDecl(tree *pytree.Tree, mod symdb.Module, modulePath string, decl *sitter.Node, reach *analysis.Reachability, log *slog.Logger) {
	if reach.IsDead(decl) {
		return
	}

	body := pytree.Body(decl)
	if body == nil {
		return
	}

	name := tree.DeclName(decl)
	qual, err := analysis.QualifiedName(tree, decl)
	if err != nil {
		logx.Trace(log, "unresolvable scope chain", "name", name)
		return
	}
	log = log.With("symbol", modulePath+"."+qual)

	if tree.HasLeadingDocstring(body) {
		logx.Trace(log, "docstring already exists, skipping")
		return
	}

	owner, sym, err := mod.Resolve(qual)
	if err != nil {
		logx.Trace(log, "cannot find symbol", "error", err)
		return
	}
	if e.cfg.IfNeeded && sym.HasSource() {
		return
	}

	kind := docstring.KindFunction
	if decl.Type() == pytree.TypeClassDef {
		kind = docstring.KindClass
	}

	text, ok := e.selector.Select(owner, sym, modulePath+"."+qual, name, kind)
	if !ok {
		logx.Trace(log, "could not find documentation")
		return
	}
	text = docstring.Clean(text)
	if text == "" {
		logx.Trace(log, "documentation empty after cleaning")
		return
	}

	literal := docstring.Quote(text, tree.BodyIndent(decl))
	logx.Trace(log, "inserting docstring", "literal", literal)
	if !tree.InsertDocstring(decl, literal) {
		logx.Trace(log, "body shape cannot take a docstring")
	}
}

// commit writes the rendered file: atomically over the original, or mirrored
// under the output directory. In-place commits preserve the original file's
// permissions and timestamps; the temp file is removed on any failure.
func (e *Engine) commit(f stubFile, out []byte) error {
	if !e.cfg.InPlace {
		outPath := filepath.Join(e.cfg.OutputDir, f.relPath)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat original: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, info.Mode()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copy permissions: %w", err)
	}
	_ = os.Chtimes(tmpPath, info.ModTime(), info.ModTime())

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
