package imagehash

import "github.com/pkg/errors"

// PerceptualHash computes the DCT hash of src, which is normally the
// grayscale image upscaled to width*factor x height*factor.
//
// Steps:
//  1. 2-D DCT-II of src, columns then rows
//  2. keep the top-left width x height low-frequency coefficients
//  3. set a bit for every coefficient strictly greater than their median
func PerceptualHash(src ScalarImage, width, height int) (BitMatrix, error) {
	if width < 1 || height < 1 || width > src.Width || height > src.Height {
		return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "cannot crop %dx%d out of %dx%d", width, height, src.Width, src.Height)
	}

	coefficients := DCT2D(src.Pix, src.Width, src.Height)

	lowFreq := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		lowFreq = append(lowFreq, coefficients[y*src.Width:y*src.Width+width]...)
	}

	return threshold(lowFreq, width, height, median(lowFreq)), nil
}
