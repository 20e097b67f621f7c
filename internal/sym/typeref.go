package sym

import "strings"

// ParseTypeRef parses a type as written in source, e.g.
// "Map<Id, List<Account>>", into a TypeRef with nested generic arguments.
// Malformed input degrades to a flat name rather than failing: syntax
// errors belong to the parser collaborator.
func ParseTypeRef(written string) TypeRef {
	written = strings.TrimSpace(written)
	open := strings.IndexByte(written, '<')
	if open < 0 || !strings.HasSuffix(written, ">") {
		return TypeRef{Name: written}
	}
	t := TypeRef{Name: strings.TrimSpace(written[:open])}
	inner := written[open+1 : len(written)-1]
	depth, start := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				t.TypeArgs = append(t.TypeArgs, ParseTypeRef(inner[start:i]))
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(inner[start:]) != "" {
		t.TypeArgs = append(t.TypeArgs, ParseTypeRef(inner[start:]))
	}
	return t
}
