package sym

// Kind classifies the semantic meaning of a symbol.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindClass
	KindInterface
	KindEnum
	KindTrigger
	KindMethod
	KindConstructor
	KindField
	KindProperty
	KindVariable
	KindParameter
	KindEnumValue
	KindNamespace
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindTrigger:
		return "trigger"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindField:
		return "field"
	case KindProperty:
		return "property"
	case KindVariable:
		return "variable"
	case KindParameter:
		return "parameter"
	case KindEnumValue:
		return "enum_value"
	case KindNamespace:
		return "namespace"
	default:
		return "invalid"
	}
}

// IsType reports whether the kind declares a type (and therefore owns a
// class-like scope).
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindTrigger:
		return true
	}
	return false
}

// IsCallable reports whether the kind can be the target of a call reference.
func (k Kind) IsCallable() bool {
	return k == KindMethod || k == KindConstructor
}
