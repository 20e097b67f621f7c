package sym

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeFile ScopeKind = iota
	ScopeClass
	ScopeMethod
	ScopeBlock
	ScopeTrigger
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeClass:
		return "class"
	case ScopeMethod:
		return "method"
	case ScopeBlock:
		return "block"
	case ScopeTrigger:
		return "trigger"
	default:
		return "invalid"
	}
}

// Scope is a lexical container of symbols. The path from the root is fixed
// at creation; every symbol belongs to exactly one scope.
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	Name    string    `json:"name"`
	Path    string    `json:"path"` // slash-joined names from the file root
	Parent  *Scope    `json:"-"`
	Range   Range     `json:"range"`
	Symbols []*Symbol `json:"symbols,omitempty"`
	Kids    []*Scope  `json:"children,omitempty"`
}

// NewFileScope creates the root scope for a file.
func NewFileScope(name string, r Range) *Scope {
	return &Scope{Kind: ScopeFile, Name: name, Path: name, Range: r}
}

// Child creates and attaches a nested scope. The child's path extends the
// parent's and is immutable from then on.
func (s *Scope) Child(kind ScopeKind, name string, r Range) *Scope {
	c := &Scope{Kind: kind, Name: name, Path: s.Path + "/" + name, Parent: s, Range: r}
	s.Kids = append(s.Kids, c)
	return c
}

// Declare adds a symbol to this scope and stamps its scope path.
func (s *Scope) Declare(symbol *Symbol) {
	symbol.ScopePath = s.Path
	s.Symbols = append(s.Symbols, symbol)
}

// Lookup finds a symbol by name in this scope only.
func (s *Scope) Lookup(name string) *Symbol {
	for _, sym := range s.Symbols {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// LookupChain finds a symbol by name walking outward through parents.
func (s *Scope) LookupChain(name string) *Symbol {
	for sc := s; sc != nil; sc = sc.Parent {
		if found := sc.Lookup(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits this scope and all descendants depth-first.
func (s *Scope) Walk(fn func(*Scope)) {
	fn(s)
	for _, c := range s.Kids {
		c.Walk(fn)
	}
}

// AllSymbols collects every symbol declared in this scope or below.
func (s *Scope) AllSymbols() []*Symbol {
	var out []*Symbol
	s.Walk(func(sc *Scope) {
		out = append(out, sc.Symbols...)
	})
	return out
}

// InnermostAt returns the deepest scope whose range contains the position.
func (s *Scope) InnermostAt(p Position) *Scope {
	if !s.Range.Contains(p) && s.Kind != ScopeFile {
		return nil
	}
	for _, c := range s.Kids {
		if inner := c.InnermostAt(p); inner != nil {
			return inner
		}
	}
	return s
}
