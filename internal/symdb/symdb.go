// Package symdb is the live-symbol provider: reflective data about loaded
// implementation modules, exposed through a small closed set of capability
// queries. The canonical backend is a SQLite symbol database produced by a
// Python-side introspection dump; an in-memory backend serves tests and
// embedding.
package symdb

import (
	"context"
	"errors"
)

// ErrNotFound reports a module path absent from the provider.
var ErrNotFound = errors.New("symdb: module not found")

// ErrUnresolved reports a dotted name whose segments do not all resolve
// inside a module.
var ErrUnresolved = errors.New("symdb: symbol not found")

// DocKind classifies a recorded documentation value.
type DocKind int

const (
	// DocNone means no documentation value exists.
	DocNone DocKind = iota
	// DocText means the value is plain text.
	DocText
	// DocDescriptor means the value is itself an unresolved data
	// descriptor (e.g. a property object inherited from a metaclass).
	DocDescriptor
	// DocOther means the value exists but is not text.
	DocOther
)

// String returns the dump encoding of the kind.
func (k DocKind) String() string {
	switch k {
	case DocText:
		return "text"
	case DocDescriptor:
		return "descriptor"
	case DocOther:
		return "other"
	}
	return "none"
}

// ParseDocKind decodes a dump encoding. Unrecognized values map to DocNone.
func ParseDocKind(s string) DocKind {
	switch s {
	case "text":
		return DocText
	case "descriptor":
		return DocDescriptor
	case "other":
		return DocOther
	}
	return DocNone
}

// Provider answers reflective queries about implementation modules.
type Provider interface {
	// Load resolves a dotted module path. Returns ErrNotFound when the
	// module is absent, or a load error recorded by the dump.
	Load(ctx context.Context, modulePath string) (Module, error)

	// RootHookDoc returns the universal root object type's own text for a
	// constructor or allocator hook ("__init__", "__new__"), used to detect
	// inherited boilerplate.
	RootHookDoc(name string) (string, bool)

	// RuntimeFacts returns the version tuple and platform string the dump
	// was taken under, when recorded.
	RuntimeFacts() (version []int, platform string, ok bool)

	// Builtins returns the set of module paths built into the runtime.
	Builtins() (map[string]bool, error)

	Close() error
}

// Module is a loaded implementation module.
type Module interface {
	// Doc returns the module's own documentation value.
	Doc() (string, DocKind)

	// HasSource reports whether the module's implementation source location
	// is recoverable.
	HasSource() bool

	// Resolve splits a dotted name and looks up each segment in turn
	// starting from the module. Returns the owner of the final segment and
	// the symbol itself; for a single-segment name the owner is the module's
	// own namespace. Any missing segment yields ErrUnresolved.
	Resolve(dotted string) (owner, sym Symbol, err error)
}

// Symbol is an opaque handle carrying capability queries. Handles are
// created per declaration and never cached across declarations: raw
// namespace entries are scope-specific.
type Symbol interface {
	// IsRoutine covers plain functions, bound and unbound methods, builtin
	// routines, method descriptors, and method wrappers.
	IsRoutine() bool
	IsDataDescriptor() bool
	IsClass() bool
	// IsRootObject reports whether this is the universal root object type.
	IsRootObject() bool

	// Doc returns the symbol's own documentation value, resolved through
	// attribute access.
	Doc() (string, DocKind)

	// TypeDocKind classifies the raw, undescriptored documentation entry on
	// the symbol's own runtime type.
	TypeDocKind() DocKind

	// RawEntry returns the raw, undescriptored entry for name in this
	// symbol's own namespace, not resolved through attribute-access
	// protocols.
	RawEntry(name string) (Symbol, bool)

	// HasSource reports whether the symbol's implementation source location
	// is recoverable.
	HasSource() bool
}
