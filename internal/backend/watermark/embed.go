package watermark

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
)

const (
	DefaultStrength = 10.0
	MinDimension    = 64
)

// ErrImageTooSmall is returned for images below MinDimension in either direction.
var ErrImageTooSmall = fmt.Errorf("image too small for watermarking (min %dx%d required)", MinDimension, MinDimension)

// Embedder writes a signature into the mid-frequency DCT coefficients of the luma channel.
type Embedder struct {
	strength float64
}

// NewEmbedder creates an embedder. A non-positive strength uses DefaultStrength.
func NewEmbedder(strength float64) *Embedder {
	if strength <= 0 {
		strength = DefaultStrength
	}
	return &Embedder{strength: strength}
}

// Embed returns a copy of img carrying signature. Each bit shifts the (4,3)
// coefficient of one 8x8 block up (1) or down (0) by the embedder strength.
func (e *Embedder) Embed(img image.Image, signature []byte) (image.Image, error) {
	if img == nil {
		return nil, errors.New("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() < MinDimension || bounds.Dy() < MinDimension {
		return nil, ErrImageTooSmall
	}
	if len(signature) == 0 {
		return nil, errors.New("signature is empty")
	}

	plane := newLumaPlane(img)
	signatureBits := bits(signature)
	origins := blockOrigins(plane.width, plane.height, len(signatureBits))

	for i, origin := range origins {
		delta := -e.strength
		if signatureBits[i] {
			delta = e.strength
		}
		shiftCoefficient(plane, origin[0], origin[1], delta)
	}

	slog.Debug("Embedder: signature embedded",
		"width", plane.width,
		"height", plane.height,
		"embedded_bits", len(origins),
		"strength", e.strength)

	return plane.image(), nil
}
