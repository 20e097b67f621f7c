package stdlib

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/apexlab/sema/internal/sym"
)

// Catalog is a SQLite-backed Provider. The database is the decoded form of
// the platform's built-in type metadata; the core only ever reads rows for
// the namespaces and types actually touched.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens a catalog database at the given path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c := &Catalog{db: db, path: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return c, nil
}

// OpenMemory opens an in-memory catalog (for testing and tooling).
func OpenMemory() (*Catalog, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory catalog: %w", err)
	}
	c := &Catalog{db: db, path: ":memory:"}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return c, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error { return c.db.Close() }

func (c *Catalog) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lib_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			fqn TEXT NOT NULL UNIQUE,
			kind INTEGER NOT NULL,
			artifact TEXT NOT NULL DEFAULT '',
			modifiers INTEGER NOT NULL DEFAULT 0,
			super_type TEXT NOT NULL DEFAULT '',
			interfaces TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lib_types_ns ON lib_types(namespace)`,
		`CREATE TABLE IF NOT EXISTS lib_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type_id INTEGER NOT NULL REFERENCES lib_types(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			kind INTEGER NOT NULL,
			member_type TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL DEFAULT '',
			modifiers INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lib_members_type ON lib_members(type_id)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

// Namespaces lists every namespace in the catalog.
func (c *Catalog) Namespaces() ([]string, error) {
	rows, err := c.db.Query(`SELECT DISTINCT namespace FROM lib_types ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Entries lists the lightweight entries of one namespace.
func (c *Catalog) Entries(namespace string) ([]Entry, error) {
	rows, err := c.db.Query(
		`SELECT fqn, name, namespace, kind, artifact FROM lib_types WHERE namespace=? ORDER BY name`,
		namespace)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var kind int
		if err := rows.Scan(&e.FQN, &e.Name, &e.Namespace, &kind, &e.Artifact); err != nil {
			return nil, err
		}
		e.Kind = sym.Kind(kind)
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("namespace %s: %w", namespace, ErrNotFound)
	}
	return out, rows.Err()
}

// Materialize builds the full symbol table for a standard-library type.
// Only the rows for this one type are read; the rest of the catalog stays
// on disk.
func (c *Catalog) Materialize(fqn string) (*sym.Table, error) {
	spec, err := c.loadSpec(fqn)
	if err != nil {
		return nil, err
	}
	table, err := buildTable(*spec)
	if err != nil {
		return nil, err
	}
	slog.Debug("stdlib.materialize", "fqn", fqn, "members", len(spec.Members))
	return table, nil
}

// loadSpec reads one type and its members from the catalog.
func (c *Catalog) loadSpec(fqn string) (*TypeSpec, error) {
	var (
		id                         int64
		spec                       TypeSpec
		kind, modifiers            int
		superType, interfacesField string
	)
	err := c.db.QueryRow(
		`SELECT id, name, namespace, kind, artifact, modifiers, super_type, interfaces
		 FROM lib_types WHERE fqn=?`, fqn).
		Scan(&id, &spec.Name, &spec.Namespace, &kind, &spec.Artifact, &modifiers, &superType, &interfacesField)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("type %s: %w", fqn, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load type %s: %w", fqn, err)
	}
	spec.Kind = sym.Kind(kind)
	spec.Modifiers = sym.Modifiers(modifiers)
	spec.SuperType = superType
	spec.Interfaces = splitList(interfacesField)

	rows, err := c.db.Query(
		`SELECT name, kind, member_type, params, modifiers FROM lib_members WHERE type_id=? ORDER BY id`,
		id)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m                  MemberSpec
			mKind, mModifiers  int
			memberType, params string
		)
		if err := rows.Scan(&m.Name, &mKind, &memberType, &params, &mModifiers); err != nil {
			return nil, err
		}
		m.Kind = sym.Kind(mKind)
		m.Type = memberType
		m.Params = splitList(params)
		m.Modifiers = sym.Modifiers(mModifiers)
		spec.Members = append(spec.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// TypeSpec describes one catalog row for insertion (catalog build tooling).
type TypeSpec struct {
	Namespace  string
	Name       string
	Kind       sym.Kind
	Artifact   string
	Modifiers  sym.Modifiers
	SuperType  string
	Interfaces []string
	Members    []MemberSpec
}

// MemberSpec describes one member row.
type MemberSpec struct {
	Name      string
	Kind      sym.Kind
	Type      string   // return type or declared type as written
	Params    []string // parameter types for methods
	Modifiers sym.Modifiers
}

// Insert writes a type and its members into the catalog.
func (c *Catalog) Insert(spec TypeSpec) error {
	fqn := spec.Namespace + "." + spec.Name
	_, err := c.db.Exec(
		`INSERT INTO lib_types (namespace, name, fqn, kind, artifact, modifiers, super_type, interfaces)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fqn) DO UPDATE SET kind=excluded.kind, artifact=excluded.artifact,
			modifiers=excluded.modifiers, super_type=excluded.super_type, interfaces=excluded.interfaces`,
		spec.Namespace, spec.Name, fqn, int(spec.Kind), spec.Artifact, int(spec.Modifiers),
		spec.SuperType, strings.Join(spec.Interfaces, ","))
	if err != nil {
		return fmt.Errorf("insert type %s: %w", fqn, err)
	}
	// LastInsertId is unreliable for ON CONFLICT DO UPDATE; read the id back.
	var id int64
	if err := c.db.QueryRow(`SELECT id FROM lib_types WHERE fqn=?`, fqn).Scan(&id); err != nil {
		return fmt.Errorf("get type id: %w", err)
	}
	if _, err := c.db.Exec(`DELETE FROM lib_members WHERE type_id=?`, id); err != nil {
		return err
	}
	for _, m := range spec.Members {
		_, err := c.db.Exec(
			`INSERT INTO lib_members (type_id, name, kind, member_type, params, modifiers)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, m.Name, int(m.Kind), m.Type, strings.Join(m.Params, ","), int(m.Modifiers))
		if err != nil {
			return fmt.Errorf("insert member %s.%s: %w", fqn, m.Name, err)
		}
	}
	return nil
}

// CountTypes returns the number of catalog types.
func (c *Catalog) CountTypes() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM lib_types`).Scan(&n)
	return n, err
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
