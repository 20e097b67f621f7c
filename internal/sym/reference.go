package sym

// RefKind tags the relationship a reference asserts.
type RefKind uint8

const (
	RefInvalid RefKind = iota
	RefInheritance
	RefInterfaceImpl
	RefContainment
	RefMethodCall
	RefTypeUse
	RefFieldAccess
	RefConstructorCall
)

func (k RefKind) String() string {
	switch k {
	case RefInheritance:
		return "inheritance"
	case RefInterfaceImpl:
		return "interface_impl"
	case RefContainment:
		return "containment"
	case RefMethodCall:
		return "method_call"
	case RefTypeUse:
		return "type_use"
	case RefFieldAccess:
		return "field_access"
	case RefConstructorCall:
		return "constructor_call"
	default:
		return "invalid"
	}
}

// RefState is the resolution state of a reference. An unresolved reference
// never silently disappears: resolution either binds it or records failure.
type RefState uint8

const (
	RefUnresolved RefState = iota
	RefResolved
	RefFailed
)

func (s RefState) String() string {
	switch s {
	case RefResolved:
		return "resolved"
	case RefFailed:
		return "failed"
	default:
		return "unresolved"
	}
}

// Reference is a directed edge from a using symbol/location to a target.
// Target is bound by resolution; until then only TargetName is known.
type Reference struct {
	From       ID       `json:"from"`
	Kind       RefKind  `json:"kind"`
	TargetName string   `json:"target_name"`
	Target     ID       `json:"target,omitempty"`
	State      RefState `json:"state"`
	FailReason string   `json:"fail_reason,omitempty"`
	Site       Range    `json:"site"`
}

// Bind marks the reference resolved against a concrete symbol.
func (r *Reference) Bind(target ID) {
	r.Target = target
	r.State = RefResolved
	r.FailReason = ""
}

// Fail records a resolution failure without dropping the reference.
func (r *Reference) Fail(reason string) {
	r.State = RefFailed
	r.FailReason = reason
}
