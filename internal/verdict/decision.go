package verdict

// Decision is the categorical verdict the verification service returns for an image.
type Decision string

const (
	Allow Decision = "ALLOW"
	Warn  Decision = "WARN"
	Block Decision = "BLOCK"

	// Unknown is used for any value the service may introduce later.
	Unknown Decision = ""
)

// ParseDecision maps a raw decision string onto the closed set of known decisions.
// Matching is exact and case-sensitive, everything else becomes Unknown.
func ParseDecision(raw string) Decision {
	switch Decision(raw) {
	case Allow, Warn, Block:
		return Decision(raw)
	default:
		return Unknown
	}
}

// IsKnown reports whether d is one of ALLOW, WARN or BLOCK.
func (d Decision) IsKnown() bool {
	return d == Allow || d == Warn || d == Block
}

// CSSClass returns the style class used to render the decision, or an empty string
// when the decision should stay unstyled.
func (d Decision) CSSClass() string {
	switch d {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return ""
	}
}

func (d Decision) String() string {
	if d == Unknown {
		return "UNKNOWN"
	}
	return string(d)
}
