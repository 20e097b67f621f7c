package sym

import "fmt"

// Position is a point in a source file. Line is 1-based, Column is 0-based,
// matching what the parse-tree provider emits.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}

// Contains reports whether the position falls inside the range.
func (r Range) Contains(p Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Column < r.Start.Column {
		return false
	}
	if p.Line == r.End.Line && p.Column >= r.End.Column {
		return false
	}
	return true
}

// Location pairs a file URI with two ranges: the whole declaration and the
// identifier token alone. Navigation wants the identifier, selection wants
// the declaration.
type Location struct {
	URI        string `json:"uri"`
	Decl       Range  `json:"decl"`
	Identifier Range  `json:"identifier"`
}

// LibraryScheme is the URI scheme reserved for standard-library symbol
// tables. Tables under this scheme are trusted by construction and are
// never validated.
const LibraryScheme = "apexlib"

// IsLibraryURI reports whether the URI uses the library-reserved scheme.
func IsLibraryURI(uri string) bool {
	return len(uri) > len(LibraryScheme)+3 && uri[:len(LibraryScheme)+3] == LibraryScheme+"://"
}
