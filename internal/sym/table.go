package sym

import "sync"

// Table is the complete semantic picture of one file: its scope tree, every
// symbol, and every outgoing reference. A table is owned exclusively by its
// file and is replaced wholesale on re-compilation, never mutated in place
// by other files.
type Table struct {
	FileURI   string       `json:"file_uri"`
	Version   int          `json:"version"`
	Namespace string       `json:"namespace,omitempty"`
	Root      *Scope       `json:"root"`
	Refs      []*Reference `json:"refs,omitempty"`

	indexOnce sync.Once
	index     map[ID]*Symbol
}

// NewTable creates an empty table for a file+version.
func NewTable(fileURI string, version int, root *Scope) *Table {
	return &Table{FileURI: fileURI, Version: version, Root: root}
}

// Symbols returns every symbol in the table.
func (t *Table) Symbols() []*Symbol {
	if t.Root == nil {
		return nil
	}
	return t.Root.AllSymbols()
}

// Symbol finds a symbol by identity key. The lookup index is built lazily on
// first use; the build is guarded so concurrent readers see a complete map.
func (t *Table) Symbol(id ID) *Symbol {
	t.indexOnce.Do(func() {
		t.index = make(map[ID]*Symbol)
		for _, s := range t.Symbols() {
			t.index[s.ID] = s
		}
	})
	return t.index[id]
}

// Unresolved returns the references still awaiting a binding.
func (t *Table) Unresolved() []*Reference {
	var out []*Reference
	for _, r := range t.Refs {
		if r.State == RefUnresolved {
			out = append(out, r)
		}
	}
	return out
}

// RefsByKind returns references of one kind in any state.
func (t *Table) RefsByKind(kind RefKind) []*Reference {
	var out []*Reference
	for _, r := range t.Refs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// IsLibrary reports whether the table belongs to the standard library.
func (t *Table) IsLibrary() bool {
	return IsLibraryURI(t.FileURI)
}

// TopLevelTypes returns the type declarations directly under the file root.
func (t *Table) TopLevelTypes() []*Symbol {
	if t.Root == nil {
		return nil
	}
	var out []*Symbol
	for _, s := range t.Root.Symbols {
		if s.Kind.IsType() {
			out = append(out, s)
		}
	}
	return out
}
