package stubdoc

import "github.com/jward/stubdoc/internal/symdb"

// Public aliases for the internal symdb types used in the Engine API, so
// consumers never import an internal package.

type Provider = symdb.Provider
type Module = symdb.Module
type Symbol = symdb.Symbol
type DocKind = symdb.DocKind
type SymbolStore = symdb.Store
type MemProvider = symdb.MemProvider
type MemModule = symdb.MemModule
type MemSymbol = symdb.MemSymbol

const (
	DocNone       = symdb.DocNone
	DocText       = symdb.DocText
	DocDescriptor = symdb.DocDescriptor
	DocOther      = symdb.DocOther
)

// Open opens a SQLite symbol database produced by the introspection dump.
func Open(dbPath string) (*SymbolStore, error) {
	return symdb.Open(dbPath)
}
