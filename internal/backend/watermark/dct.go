package watermark

import "math"

const BlockSize = 8

// Mid-frequency coefficient carrying one signature bit per block.
const (
	coeffRow = 4
	coeffCol = 3
)

// basis holds the orthonormal 2D DCT-II basis function for (coeffRow, coeffCol).
// Shifting that coefficient by d is the same as adding d*basis to the block, and
// reading it is the dot product of the block with basis.
var basis = dctBasis(coeffRow, coeffCol)

func dctBasis(v, u int) [BlockSize][BlockSize]float64 {
	var b [BlockSize][BlockSize]float64
	cv := alpha(v)
	cu := alpha(u)
	for y := 0; y < BlockSize; y++ {
		for x := 0; x < BlockSize; x++ {
			b[y][x] = cv * cu *
				math.Cos(float64(2*y+1)*float64(v)*math.Pi/(2*BlockSize)) *
				math.Cos(float64(2*x+1)*float64(u)*math.Pi/(2*BlockSize))
		}
	}
	return b
}

func alpha(k int) float64 {
	if k == 0 {
		return math.Sqrt(1.0 / BlockSize)
	}
	return math.Sqrt(2.0 / BlockSize)
}

// coefficient returns the DCT coefficient of the block at (row, col) in plane.
func coefficient(plane *lumaPlane, row, col int) float64 {
	var sum float64
	for y := 0; y < BlockSize; y++ {
		offset := (row+y)*plane.width + col
		for x := 0; x < BlockSize; x++ {
			sum += plane.values[offset+x] * basis[y][x]
		}
	}
	return sum
}

// shiftCoefficient adds delta to the coefficient of the block at (row, col).
func shiftCoefficient(plane *lumaPlane, row, col int, delta float64) {
	for y := 0; y < BlockSize; y++ {
		offset := (row+y)*plane.width + col
		for x := 0; x < BlockSize; x++ {
			plane.values[offset+x] += delta * basis[y][x]
		}
	}
}

// blockOrigins yields the top-left corners of the blocks used for the signature,
// row-major, stopping after limit blocks. The last block row and column are never
// used, even when the dimensions are exact multiples of BlockSize.
func blockOrigins(width, height, limit int) [][2]int {
	var origins [][2]int
	for row := 0; row < height-BlockSize; row += BlockSize {
		for col := 0; col < width-BlockSize; col += BlockSize {
			if len(origins) >= limit {
				return origins
			}
			origins = append(origins, [2]int{row, col})
		}
	}
	return origins
}
