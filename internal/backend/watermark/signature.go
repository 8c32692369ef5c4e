package watermark

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// SignatureBits is the number of bits embedded into an image (one SHA-256 digest).
const SignatureBits = sha256.Size * 8

// Metadata describes the generator that signed an image.
type Metadata struct {
	Generator string `json:"generator"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// NewMetadata returns metadata for an AI generated image signed at t.
func NewMetadata(generator string, t time.Time) Metadata {
	return Metadata{
		Generator: generator,
		Timestamp: t.UTC().Format("2006-01-02T15:04:05.000000"),
		Type:      "AI_GENERATED",
	}
}

// Signature hashes the metadata. Fields are serialized in key order.
func (m Metadata) Signature() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signature metadata: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// bits expands bytes into bits, most significant bit first.
func bits(data []byte) []bool {
	out := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			out = append(out, (b>>uint(i))&1 == 1)
		}
	}
	return out
}
