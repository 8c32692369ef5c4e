package frontend

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const iconPNGSize = 64

// favicon serves the embedded SVG icon and a PNG rasterization of it, rendered
// on first use.
type favicon struct {
	svg  []byte
	size int

	once sync.Once
	png  []byte
	err  error
}

func newFavicon(svg []byte, size int) *favicon {
	return &favicon{svg: svg, size: size}
}

func (f *favicon) PNG() ([]byte, error) {
	f.once.Do(func() {
		f.png, f.err = rasterize(f.svg, f.size)
	})
	return f.png, f.err
}

func rasterize(svg []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid icon size %d", size)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	// a fresh NRGBA canvas is fully transparent
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}
	return buf.Bytes(), nil
}
