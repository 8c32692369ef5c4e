package watermark

import (
	"image"
	"image/color"
	"math"
)

// lumaPlane is the BT.601 luma channel of an image with the chroma kept alongside
// so the image can be rebuilt after the luma was modified.
type lumaPlane struct {
	width, height int
	values        []float64
	cr, cb        []uint8
	alpha         []uint8
}

func newLumaPlane(img image.Image) *lumaPlane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := &lumaPlane{
		width:  w,
		height: h,
		values: make([]float64, w*h),
		cr:     make([]uint8, w*h),
		cb:     make([]uint8, w*h),
		alpha:  make([]uint8, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r, g, b := float64(c.R), float64(c.G), float64(c.B)
			luma := 0.299*r + 0.587*g + 0.114*b
			i := y*w + x
			// luma is stored rounded, the same as an 8-bit YCrCb split
			plane.values[i] = math.Round(luma)
			plane.cr[i] = clamp8((r-luma)*0.713 + 128)
			plane.cb[i] = clamp8((b-luma)*0.564 + 128)
			plane.alpha[i] = c.A
		}
	}
	return plane
}

// image rebuilds an RGB image from the (possibly modified) luma and the stored chroma.
func (p *lumaPlane) image() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			i := y*p.width + x
			luma := float64(clamp8(p.values[i]))
			cr := float64(p.cr[i]) - 128
			cb := float64(p.cb[i]) - 128
			out.SetNRGBA(x, y, color.NRGBA{
				R: clamp8(luma + 1.403*cr),
				G: clamp8(luma - 0.714*cr - 0.344*cb),
				B: clamp8(luma + 1.773*cb),
				A: p.alpha[i],
			})
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
