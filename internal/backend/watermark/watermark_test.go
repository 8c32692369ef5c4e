package watermark

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/jo-hoe/aisign/internal/verdict"
)

func grayImage(w, h int, value uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: value, G: value, B: value, A: 255})
		}
	}
	return img
}

func testSignature(t *testing.T) []byte {
	t.Helper()
	sig, err := NewMetadata("demo_ai_engine", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).Signature()
	if err != nil {
		t.Fatalf("Signature error: %v", err)
	}
	return sig
}

func TestBasisIsOrthonormal(t *testing.T) {
	var norm float64
	for y := 0; y < BlockSize; y++ {
		for x := 0; x < BlockSize; x++ {
			norm += basis[y][x] * basis[y][x]
		}
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("expected unit norm basis, got %f", norm)
	}
}

func TestShiftCoefficient_RoundTrip(t *testing.T) {
	plane := newLumaPlane(grayImage(16, 16, 100))
	before := coefficient(plane, 0, 0)
	shiftCoefficient(plane, 0, 0, 10)
	after := coefficient(plane, 0, 0)
	if math.Abs(after-before-10) > 1e-9 {
		t.Fatalf("expected coefficient to move by 10, moved by %f", after-before)
	}
}

func TestBlockOrigins(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		limit         int
		expected      int
	}{
		{name: "exact multiple drops last row and column", width: 64, height: 64, limit: 256, expected: 49},
		{name: "partial blocks", width: 70, height: 70, limit: 256, expected: 64},
		{name: "limit", width: 512, height: 512, limit: 256, expected: 256},
		{name: "too small", width: 8, height: 8, limit: 256, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(blockOrigins(tt.width, tt.height, tt.limit)); got != tt.expected {
				t.Errorf("expected %d blocks, got %d", tt.expected, got)
			}
		})
	}
}

func TestBits(t *testing.T) {
	got := bits([]byte{0xA0})
	expected := []bool{true, false, true, false, false, false, false, false}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("bit %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
	if len(bits(testSignature(t))) != SignatureBits {
		t.Fatalf("expected %d signature bits", SignatureBits)
	}
}

func TestEmbedThenDetect(t *testing.T) {
	signature := testSignature(t)
	signed, err := NewEmbedder(DefaultStrength).Embed(grayImage(160, 160, 128), signature)
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}

	// round trip through PNG to include quantization
	data, format, err := Encode(signed, "png")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png, got %s", format)
	}
	decoded, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	detection, err := NewDetector(0, 0).Detect(decoded)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if detection.Status != verdict.AIGeneratedAuthentic {
		t.Fatalf("expected %s, got %s (confidence %f)", verdict.AIGeneratedAuthentic, detection.Status, detection.Confidence)
	}

	expected := bits(signature)
	for i, bit := range detection.Bits {
		if bit != expected[i] {
			t.Fatalf("bit %d: expected %v, got %v", i, expected[i], bit)
		}
	}
}

func TestDetect_UnsignedImage(t *testing.T) {
	detection, err := NewDetector(0, 0).Detect(grayImage(160, 160, 128))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if detection.Status != verdict.NoVerifiableSignature {
		t.Fatalf("expected %s, got %s", verdict.NoVerifiableSignature, detection.Status)
	}
	if detection.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %f", detection.Confidence)
	}
}

func TestDetect_TinyImage(t *testing.T) {
	detection, err := NewDetector(0, 0).Detect(grayImage(8, 8, 10))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if detection.Status != verdict.NoVerifiableSignature || detection.Confidence != 0 {
		t.Fatalf("unexpected detection %+v", detection)
	}
}

func TestEmbed_TooSmall(t *testing.T) {
	_, err := NewEmbedder(0).Embed(grayImage(63, 200, 128), testSignature(t))
	if !errors.Is(err, ErrImageTooSmall) {
		t.Fatalf("expected ErrImageTooSmall, got %v", err)
	}
}

func TestEncode_WebPFallsBackToPNG(t *testing.T) {
	_, format, err := Encode(grayImage(4, 4, 1), "webp")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png fallback, got %s", format)
	}
	if MIMEType(format) != "image/png" {
		t.Fatalf("unexpected mime %s", MIMEType(format))
	}
}

func TestEncode_JPEG(t *testing.T) {
	data, format, err := Encode(grayImage(16, 16, 50), "jpg")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg, got %s", format)
	}
	sniffed, err := SniffFormat(data)
	if err != nil || sniffed != "jpeg" {
		t.Fatalf("expected sniffed jpeg, got %q (%v)", sniffed, err)
	}
}
