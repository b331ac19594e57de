package symdb

import (
	"context"
	"fmt"
	"strings"
)

// MemProvider is an in-memory Provider for tests and embedding.
type MemProvider struct {
	Modules    map[string]*MemModule
	RootHooks  map[string]string
	BuiltinSet map[string]bool
	Version    []int
	Platform   string
}

var _ Provider = (*MemProvider)(nil)

// MemModule is an in-memory Module. Symbols are keyed by module-relative
// qualified name.
type MemModule struct {
	DocText   string
	DocKind   DocKind
	Source    bool
	Symbols   map[string]*MemSymbol
	Raw       map[string]*MemSymbol // module namespace raw entries
	LoadError string
}

// MemSymbol is an in-memory Symbol.
type MemSymbol struct {
	Routine        bool
	DataDescriptor bool
	Class          bool
	RootObject     bool
	DocText        string
	Kind           DocKind
	TypeKind       DocKind
	Source         bool
	Raw            map[string]*MemSymbol
}

func (p *MemProvider) Load(_ context.Context, modulePath string) (Module, error) {
	mod, ok := p.Modules[modulePath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, modulePath)
	}
	if mod.LoadError != "" {
		return nil, fmt.Errorf("load %s: %s", modulePath, mod.LoadError)
	}
	return mod, nil
}

func (p *MemProvider) RootHookDoc(name string) (string, bool) {
	doc, ok := p.RootHooks[name]
	return doc, ok
}

func (p *MemProvider) RuntimeFacts() ([]int, string, bool) {
	if len(p.Version) == 0 {
		return nil, "", false
	}
	return p.Version, p.Platform, true
}

func (p *MemProvider) Builtins() (map[string]bool, error) {
	return p.BuiltinSet, nil
}

func (p *MemProvider) Close() error { return nil }

func (m *MemModule) Doc() (string, DocKind) {
	return m.DocText, m.DocKind
}

func (m *MemModule) HasSource() bool {
	return m.Source
}

func (m *MemModule) Resolve(dotted string) (Symbol, Symbol, error) {
	segments := strings.Split(dotted, ".")
	var owner Symbol = &MemSymbol{Raw: m.Raw}
	var sym *MemSymbol

	prefix := ""
	for _, seg := range segments {
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + "." + seg
		}
		next, ok := m.Symbols[prefix]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnresolved, prefix)
		}
		if sym != nil {
			owner = sym
		}
		sym = next
	}
	return owner, sym, nil
}

func (s *MemSymbol) IsRoutine() bool        { return s.Routine }
func (s *MemSymbol) IsDataDescriptor() bool { return s.DataDescriptor }
func (s *MemSymbol) IsClass() bool          { return s.Class }
func (s *MemSymbol) IsRootObject() bool     { return s.RootObject }
func (s *MemSymbol) HasSource() bool        { return s.Source }

func (s *MemSymbol) Doc() (string, DocKind) {
	return s.DocText, s.Kind
}

func (s *MemSymbol) TypeDocKind() DocKind {
	return s.TypeKind
}

func (s *MemSymbol) RawEntry(name string) (Symbol, bool) {
	entry, ok := s.Raw[name]
	if !ok {
		return nil, false
	}
	return entry, true
}
