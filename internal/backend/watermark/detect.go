package watermark

import (
	"errors"
	"image"
	"log/slog"
	"math"

	"github.com/jo-hoe/aisign/internal/verdict"
)

const (
	DefaultAuthenticThreshold = 0.80
	DefaultTamperedThreshold  = 0.30

	// coefficients at or below this magnitude do not count as signal
	signalThreshold = 5.0
)

// Detection is the outcome of scanning an image for a signature.
type Detection struct {
	Status     verdict.Status
	Confidence float64
	Bits       []bool
}

// Detector estimates whether an image carries a signature.
type Detector struct {
	authenticThreshold float64
	tamperedThreshold  float64
}

// NewDetector creates a detector. Zero thresholds use the defaults.
func NewDetector(authenticThreshold, tamperedThreshold float64) *Detector {
	if authenticThreshold <= 0 {
		authenticThreshold = DefaultAuthenticThreshold
	}
	if tamperedThreshold <= 0 {
		tamperedThreshold = DefaultTamperedThreshold
	}
	return &Detector{
		authenticThreshold: authenticThreshold,
		tamperedThreshold:  tamperedThreshold,
	}
}

// Detect reads up to SignatureBits blocks and classifies the image by the share of
// blocks whose coefficient is strong enough to be a deliberate shift.
func (d *Detector) Detect(img image.Image) (*Detection, error) {
	if img == nil {
		return nil, errors.New("image is nil")
	}

	plane := newLumaPlane(img)
	origins := blockOrigins(plane.width, plane.height, SignatureBits)
	if len(origins) == 0 {
		return &Detection{Status: verdict.NoVerifiableSignature, Confidence: 0}, nil
	}

	extracted := make([]bool, 0, len(origins))
	strong := 0
	for _, origin := range origins {
		coeff := coefficient(plane, origin[0], origin[1])
		extracted = append(extracted, coeff > 0)
		if math.Abs(coeff) > signalThreshold {
			strong++
		}
	}

	ratio := float64(strong) / float64(len(extracted))

	status := verdict.NoVerifiableSignature
	switch {
	case ratio >= d.authenticThreshold:
		status = verdict.AIGeneratedAuthentic
	case ratio >= d.tamperedThreshold:
		status = verdict.Tampered
	}
	confidence := roundTo(ratio, 3)

	slog.Debug("Detector: scan complete",
		"blocks", len(extracted),
		"strong_blocks", strong,
		"confidence", confidence,
		"status", status)

	return &Detection{Status: status, Confidence: confidence, Bits: extracted}, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
