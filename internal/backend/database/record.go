package database

import "time"

// Kind tells which endpoint produced a record.
type Kind string

const (
	KindEmbed  Kind = "embed"
	KindVerify Kind = "verify"
)

type Record struct {
	ID              string    `db:"id"`
	Kind            Kind      `db:"kind"`
	Filename        string    `db:"filename"`
	OriginalImage   []byte    `db:"original_image"`  // uploaded bytes as received
	ProcessedImage  []byte    `db:"processed_image"` // signed bytes, embed only
	DetectionStatus string    `db:"detection_status"`
	Confidence      float64   `db:"confidence"`
	Context         string    `db:"context"`
	Decision        string    `db:"decision"`
	CreatedAt       time.Time `db:"created_at"`
}

// VerifyFields is the verdict persisted for a verify record.
type VerifyFields struct {
	DetectionStatus string
	Confidence      float64
	Context         string
	Decision        string
}
