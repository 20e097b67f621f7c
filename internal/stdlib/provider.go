// Package stdlib supplies standard-library type metadata to the semantic
// core. Lightweight catalog entries describe every built-in type; the full
// symbol table for a type is materialized lazily on first use so startup
// never pays for the whole library.
package stdlib

import (
	"errors"

	"github.com/apexlab/sema/internal/sym"
)

// ErrNotFound is returned when a namespace or type is not in the catalog.
var ErrNotFound = errors.New("stdlib: not found")

// Entry is a lightweight catalog row: enough to answer "does this type
// exist and where", nothing more.
type Entry struct {
	FQN       string   `json:"fqn"`
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	Kind      sym.Kind `json:"kind"`
	Artifact  string   `json:"artifact"` // owning library artifact name
}

// LibraryURI returns the reserved-scheme URI for the entry's symbol table.
func (e Entry) LibraryURI() string {
	return "apexlib://" + e.Namespace + "/" + e.Name + ".cls"
}

// Provider serves catalog entries and on-demand materialization.
type Provider interface {
	// Namespaces lists every standard-library namespace.
	Namespaces() ([]string, error)
	// Entries lists the lightweight entries of one namespace.
	Entries(namespace string) ([]Entry, error)
	// Materialize builds the full symbol table for a fully-qualified type
	// name. Returns ErrNotFound for unknown types.
	Materialize(fqn string) (*sym.Table, error)
}
