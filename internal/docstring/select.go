package docstring

import (
	"log/slog"

	"github.com/jward/stubdoc/internal/logx"
	"github.com/jward/stubdoc/internal/symdb"
)

// DeclKind is the declaration shape a selection runs for.
type DeclKind int

const (
	KindModule DeclKind = iota
	KindClass
	KindFunction
)

// Selector decides the applicable documentation text for a resolved symbol
// using its capability tags.
type Selector struct {
	provider symdb.Provider
	log      *slog.Logger
}

// NewSelector creates a Selector. The provider supplies the root object
// type's constructor texts for boilerplate detection.
func NewSelector(provider symdb.Provider, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{provider: provider, log: log}
}

// ModuleDoc returns a module's own documentation text, if any. No fallback.
func (s *Selector) ModuleDoc(mod symdb.Module, modulePath string) (string, bool) {
	doc, kind := mod.Doc()
	return s.text(doc, kind, modulePath)
}

// Select returns the documentation text for a declaration, or absent.
// owner is the namespace the member was reached through; member is the final
// segment of qualname.
func (s *Selector) Select(owner, sym symdb.Symbol, qualname, member string, kind DeclKind) (string, bool) {
	switch kind {
	case KindClass:
		return s.classDoc(sym, qualname)
	case KindFunction:
		return s.functionDoc(owner, sym, qualname, member)
	}
	return "", false
}

// classDoc takes the class's own text. A documentation value that is itself
// a data descriptor is inherited from a metaclass, not resolved text, and is
// treated as absent.
func (s *Selector) classDoc(sym symdb.Symbol, qualname string) (string, bool) {
	doc, kind := sym.Doc()
	if kind == symdb.DocDescriptor {
		s.log.Debug("ignoring documentation descriptor", "symbol", qualname)
		return "", false
	}
	return s.text(doc, kind, qualname)
}

func (s *Selector) functionDoc(owner, sym symdb.Symbol, qualname, member string) (string, bool) {
	// Routines and data descriptors carry their text directly.
	if sym.IsRoutine() || sym.IsDataDescriptor() {
		doc, kind := sym.Doc()
		text, ok := s.text(doc, kind, qualname)
		if !ok {
			return "", false
		}
		// A constructor or allocator hook whose text matches the root
		// object type's is inherited boilerplate.
		if owner != nil && owner.IsClass() && !owner.IsRootObject() &&
			(member == "__init__" || member == "__new__") {
			if hook, hok := s.provider.RootHookDoc(member); hok && text == hook {
				logx.Trace(s.log, "ignoring inherited constructor documentation", "symbol", qualname)
				return "", false
			}
		}
		return text, true
	}

	// A plain value reached through a data descriptor: the raw namespace
	// entry carries the text.
	if owner != nil {
		if raw, ok := owner.RawEntry(member); ok && raw.IsDataDescriptor() {
			if doc, kind := raw.Doc(); kind == symdb.DocText && doc != "" {
				s.log.Debug("using documentation from descriptor", "symbol", qualname)
				return doc, true
			}
		}
	}

	// An instance: use its direct text, but only when its runtime type has
	// no resolved text of its own to shadow it.
	if !sym.IsClass() {
		switch sym.TypeDocKind() {
		case symdb.DocNone, symdb.DocDescriptor:
			if doc, kind := sym.Doc(); kind == symdb.DocText && doc != "" {
				s.log.Debug("using documentation from instance", "symbol", qualname)
				return doc, true
			}
		}
	}

	return "", false
}

// text validates that a documentation value is plain text. Non-text values
// are logged as a warning and treated as absent.
func (s *Selector) text(doc string, kind symdb.DocKind, qualname string) (string, bool) {
	switch kind {
	case symdb.DocText:
		if doc == "" {
			return "", false
		}
		return doc, true
	case symdb.DocNone:
		return "", false
	default:
		s.log.Warn("documentation value is not text", "symbol", qualname)
		return "", false
	}
}
