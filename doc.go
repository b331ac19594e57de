// Package stubdoc enriches Python interface stub files (.pyi) with
// documentation recovered from the corresponding live implementation. It
// parses each stub with tree-sitter, proves version- and platform-guarded
// branches dead or alive, resolves every class and function declaration to a
// qualified name, selects the right documentation text through
// capability-based symbol queries, and splices safely quoted docstring
// literals back into the source while preserving every other byte exactly.
//
// # Pipeline
//
// For each stub file under the input directories:
//
//  1. Resolve the dotted module path from the file's location and load the
//     module from the symbol database (load-once per path, shared across
//     files).
//
//  2. Parse the stub losslessly, mark branches proven unreachable under the
//     database's recorded version and platform facts, and walk every
//     declaration in document order.
//
//  3. For each declaration that is live, undocumented, and resolvable, ask
//     the symbol database for its documentation text, quote it, and splice
//     it into the declaration's body.
//
//  4. Serialize and commit the whole file: atomically in place, or mirrored
//     under a separate output root.
//
// Files are independent and processed in parallel across a bounded worker
// pool; a failure in one file never affects another.
//
// # Usage
//
// Open a symbol database, create an Engine, and run it:
//
//	provider, err := stubdoc.Open("symbols.db")
//	if err != nil { ... }
//	defer provider.Close()
//
//	e, err := stubdoc.New(provider, stubdoc.Config{
//		InputDirs: []string{"stubs"},
//		InPlace:   true,
//	})
//	if err != nil { ... }
//
//	stats, err := e.Run(context.Background())
//
// The symbol database itself is produced by a Python-side introspection dump
// that records each module's members, their capability tags (routine, data
// descriptor, class, instance), and their documentation values. See the
// internal/symdb package for the schema.
package stubdoc
