package sym

// Severity grades a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a user-facing finding tied to a source range. Parse failures
// and validator findings share this shape.
type Diagnostic struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Range    Range    `json:"range"`
}
