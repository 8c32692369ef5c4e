package verdict

// Status is the outcome of the signature detection step.
type Status string

const (
	AIGeneratedAuthentic  Status = "AI_GENERATED_AUTHENTIC"
	Tampered              Status = "TAMPERED"
	NoVerifiableSignature Status = "NO_VERIFIABLE_SIGNATURE"
)

// Statuses lists every detection status in the order used by policy tables.
func Statuses() []Status {
	return []Status{AIGeneratedAuthentic, Tampered, NoVerifiableSignature}
}
