package symdb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed Provider reading a symbol database produced by
// the introspection dump.
type Store struct {
	db *sql.DB
}

var _ Provider = (*Store)(nil)

// Open opens a symbol database at dbPath with WAL mode enabled.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS modules (
  path            TEXT PRIMARY KEY,
  doc             TEXT,
  doc_kind        TEXT NOT NULL DEFAULT 'none',
  has_source      BOOLEAN NOT NULL DEFAULT FALSE,
  builtin         BOOLEAN NOT NULL DEFAULT FALSE,
  load_error      TEXT
);

CREATE TABLE IF NOT EXISTS symbols (
  id                 INTEGER PRIMARY KEY,
  module_path        TEXT NOT NULL REFERENCES modules(path),
  qualname           TEXT NOT NULL,
  is_routine         BOOLEAN NOT NULL DEFAULT FALSE,
  is_data_descriptor BOOLEAN NOT NULL DEFAULT FALSE,
  is_class           BOOLEAN NOT NULL DEFAULT FALSE,
  is_root_object     BOOLEAN NOT NULL DEFAULT FALSE,
  doc                TEXT,
  doc_kind           TEXT NOT NULL DEFAULT 'none',
  type_doc_kind      TEXT NOT NULL DEFAULT 'none',
  has_source         BOOLEAN NOT NULL DEFAULT FALSE,
  UNIQUE(module_path, qualname)
);

CREATE TABLE IF NOT EXISTS raw_entries (
  id                 INTEGER PRIMARY KEY,
  module_path        TEXT NOT NULL REFERENCES modules(path),
  owner_qualname     TEXT NOT NULL DEFAULT '',
  name               TEXT NOT NULL,
  is_data_descriptor BOOLEAN NOT NULL DEFAULT FALSE,
  doc                TEXT,
  doc_kind           TEXT NOT NULL DEFAULT 'none',
  UNIQUE(module_path, owner_qualname, name)
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_symbols_lookup ON symbols(module_path, qualname);
CREATE INDEX IF NOT EXISTS idx_raw_entries_lookup ON raw_entries(module_path, owner_qualname, name);
`

// ModuleRow mirrors one row of the modules table.
type ModuleRow struct {
	Path      string
	Doc       string
	DocKind   DocKind
	HasSource bool
	Builtin   bool
	LoadError string
}

// SymbolRow mirrors one row of the symbols table.
type SymbolRow struct {
	ModulePath       string
	Qualname         string
	IsRoutine        bool
	IsDataDescriptor bool
	IsClass          bool
	IsRootObject     bool
	Doc              string
	DocKind          DocKind
	TypeDocKind      DocKind
	HasSource        bool
}

// RawEntryRow mirrors one row of the raw_entries table.
type RawEntryRow struct {
	ModulePath       string
	OwnerQualname    string
	Name             string
	IsDataDescriptor bool
	Doc              string
	DocKind          DocKind
}

// InsertModule inserts or replaces a module row.
func (s *Store) InsertModule(m *ModuleRow) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO modules (path, doc, doc_kind, has_source, builtin, load_error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Path, m.Doc, m.DocKind.String(), m.HasSource, m.Builtin, nullable(m.LoadError),
	)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

// InsertSymbol inserts or replaces a symbol row.
func (s *Store) InsertSymbol(r *SymbolRow) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO symbols
		 (module_path, qualname, is_routine, is_data_descriptor, is_class, is_root_object,
		  doc, doc_kind, type_doc_kind, has_source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ModulePath, r.Qualname, r.IsRoutine, r.IsDataDescriptor, r.IsClass, r.IsRootObject,
		r.Doc, r.DocKind.String(), r.TypeDocKind.String(), r.HasSource,
	)
	if err != nil {
		return fmt.Errorf("insert symbol: %w", err)
	}
	return nil
}

// InsertRawEntry inserts or replaces a raw namespace entry row.
func (s *Store) InsertRawEntry(r *RawEntryRow) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO raw_entries
		 (module_path, owner_qualname, name, is_data_descriptor, doc, doc_kind)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ModulePath, r.OwnerQualname, r.Name, r.IsDataDescriptor, r.Doc, r.DocKind.String(),
	)
	if err != nil {
		return fmt.Errorf("insert raw entry: %w", err)
	}
	return nil
}

// SetMetadata stores a key/value pair.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}

// GetMetadata retrieves the value for key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return value, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Load implements Provider.
func (s *Store) Load(_ context.Context, modulePath string) (Module, error) {
	var m ModuleRow
	var doc, loadError sql.NullString
	var docKind string
	err := s.db.QueryRow(
		`SELECT path, doc, doc_kind, has_source, builtin, load_error
		 FROM modules WHERE path = ?`, modulePath,
	).Scan(&m.Path, &doc, &docKind, &m.HasSource, &m.Builtin, &loadError)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, modulePath)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", modulePath, err)
	}
	if loadError.Valid && loadError.String != "" {
		return nil, fmt.Errorf("load %s: %s", modulePath, loadError.String)
	}
	m.Doc = doc.String
	m.DocKind = ParseDocKind(docKind)
	return &sqliteModule{store: s, row: m}, nil
}

// RootHookDoc implements Provider. The dump records the root object type's
// constructor and allocator texts under metadata keys.
func (s *Store) RootHookDoc(name string) (string, bool) {
	var key string
	switch name {
	case "__init__":
		key = "root_init_doc"
	case "__new__":
		key = "root_new_doc"
	default:
		return "", false
	}
	value, err := s.GetMetadata(key)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

// RuntimeFacts implements Provider. The dump records "python_version" (dotted
// integers) and "platform" metadata.
func (s *Store) RuntimeFacts() (version []int, platform string, ok bool) {
	raw, err := s.GetMetadata("python_version")
	if err != nil || raw == "" {
		return nil, "", false
	}
	for _, part := range strings.Split(raw, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, "", false
		}
		version = append(version, n)
	}
	platform, err = s.GetMetadata("platform")
	if err != nil {
		return nil, "", false
	}
	return version, platform, true
}

// Builtins implements Provider.
func (s *Store) Builtins() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT path FROM modules WHERE builtin`)
	if err != nil {
		return nil, fmt.Errorf("list builtins: %w", err)
	}
	defer rows.Close()
	builtins := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		builtins[path] = true
	}
	return builtins, rows.Err()
}

// sqliteModule implements Module over a modules row.
type sqliteModule struct {
	store *Store
	row   ModuleRow
}

func (m *sqliteModule) Doc() (string, DocKind) {
	return m.row.Doc, m.row.DocKind
}

func (m *sqliteModule) HasSource() bool {
	return m.row.HasSource
}

// Resolve looks up each dotted segment in turn. The owner of a top-level
// name is the module's own namespace, represented as a symbol with no
// capabilities beyond raw-entry lookup.
func (m *sqliteModule) Resolve(dotted string) (Symbol, Symbol, error) {
	segments := strings.Split(dotted, ".")
	var owner Symbol = &sqliteSymbol{store: m.store, row: SymbolRow{ModulePath: m.row.Path}}
	var sym Symbol

	prefix := ""
	for _, seg := range segments {
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + "." + seg
		}
		next, err := m.store.symbol(m.row.Path, prefix)
		if err != nil {
			return nil, nil, err
		}
		if sym != nil {
			owner = sym
		}
		sym = next
	}
	return owner, sym, nil
}

// symbol fetches one symbol row.
func (s *Store) symbol(modulePath, qualname string) (*sqliteSymbol, error) {
	var r SymbolRow
	var doc sql.NullString
	var docKind, typeDocKind string
	err := s.db.QueryRow(
		`SELECT module_path, qualname, is_routine, is_data_descriptor, is_class, is_root_object,
		        doc, doc_kind, type_doc_kind, has_source
		 FROM symbols WHERE module_path = ? AND qualname = ?`,
		modulePath, qualname,
	).Scan(&r.ModulePath, &r.Qualname, &r.IsRoutine, &r.IsDataDescriptor, &r.IsClass,
		&r.IsRootObject, &doc, &docKind, &typeDocKind, &r.HasSource)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnresolved, modulePath, qualname)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s.%s: %w", modulePath, qualname, err)
	}
	r.Doc = doc.String
	r.DocKind = ParseDocKind(docKind)
	r.TypeDocKind = ParseDocKind(typeDocKind)
	return &sqliteSymbol{store: s, row: r}, nil
}

// sqliteSymbol implements Symbol over a symbols row. A zero-qualname row
// stands in for the module's own namespace.
type sqliteSymbol struct {
	store *Store
	row   SymbolRow
}

func (s *sqliteSymbol) IsRoutine() bool        { return s.row.IsRoutine }
func (s *sqliteSymbol) IsDataDescriptor() bool { return s.row.IsDataDescriptor }
func (s *sqliteSymbol) IsClass() bool          { return s.row.IsClass }
func (s *sqliteSymbol) IsRootObject() bool     { return s.row.IsRootObject }
func (s *sqliteSymbol) HasSource() bool        { return s.row.HasSource }

func (s *sqliteSymbol) Doc() (string, DocKind) {
	return s.row.Doc, s.row.DocKind
}

func (s *sqliteSymbol) TypeDocKind() DocKind {
	return s.row.TypeDocKind
}

func (s *sqliteSymbol) RawEntry(name string) (Symbol, bool) {
	var r RawEntryRow
	var doc sql.NullString
	var docKind string
	err := s.store.db.QueryRow(
		`SELECT module_path, owner_qualname, name, is_data_descriptor, doc, doc_kind
		 FROM raw_entries WHERE module_path = ? AND owner_qualname = ? AND name = ?`,
		s.row.ModulePath, s.row.Qualname, name,
	).Scan(&r.ModulePath, &r.OwnerQualname, &r.Name, &r.IsDataDescriptor, &doc, &docKind)
	if err != nil {
		return nil, false
	}
	r.Doc = doc.String
	return &sqliteSymbol{store: s.store, row: SymbolRow{
		ModulePath:       r.ModulePath,
		Qualname:         r.OwnerQualname + "." + r.Name,
		IsDataDescriptor: r.IsDataDescriptor,
		Doc:              r.Doc,
		DocKind:          ParseDocKind(docKind),
	}}, true
}
