package imagehash

import "math"

// DCT2 returns the unnormalised type-II discrete cosine transform of x:
//
//	y[k] = 2 * sum(x[n] * cos(pi*k*(2n+1) / 2N))
//
// This is the scaling SciPy uses by default, which keeps perceptual hashes
// bit-compatible with the Python imagehash package.
func DCT2(x []float64) []float64 {
	n := len(x)
	y := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*float64(2*i+1)/float64(2*n))
		}
		y[k] = 2 * sum
	}
	return y
}

// DCT2Columns transforms every column of the row-major matrix pix.
func DCT2Columns(pix []float64, width, height int) []float64 {
	out := make([]float64, len(pix))
	column := make([]float64, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			column[y] = pix[y*width+x]
		}
		for y, v := range DCT2(column) {
			out[y*width+x] = v
		}
	}
	return out
}

// DCT2Rows transforms every row of the row-major matrix pix.
func DCT2Rows(pix []float64, width, height int) []float64 {
	out := make([]float64, 0, len(pix))
	for y := 0; y < height; y++ {
		out = append(out, DCT2(pix[y*width:(y+1)*width])...)
	}
	return out
}

// DCT2D is the separable two-dimensional transform: columns first, then the
// rows of that intermediate. The result stays row-major in the orientation
// of the input.
func DCT2D(pix []float64, width, height int) []float64 {
	return DCT2Rows(DCT2Columns(pix, width, height), width, height)
}

// transpose swaps rows and columns of a row-major width x height matrix.
func transpose(pix []float64, width, height int) []float64 {
	out := make([]float64, len(pix))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[x*height+y] = pix[y*width+x]
		}
	}
	return out
}
