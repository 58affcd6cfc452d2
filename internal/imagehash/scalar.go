package imagehash

import (
	"math"

	"github.com/pkg/errors"
)

// MaxBrightness is the upper bound of a ScalarImage value.
const MaxBrightness = 255.0

// ScalarImage is a row-major grid of per-pixel brightness values in
// [0, MaxBrightness]. It is what the grayscale and resize step hands to a
// hasher.
type ScalarImage struct {
	Width  int
	Height int
	Pix    []float64
}

// NewScalarImage validates pix against the given shape and returns a
// ScalarImage owning a copy of it.
func NewScalarImage(width, height int, pix []float64) (ScalarImage, error) {
	if err := checkShape(width, height); err != nil {
		return ScalarImage{}, err
	}
	if len(pix) != width*height {
		return ScalarImage{}, errors.Wrapf(ErrInvalidConfig, "scalar image has %d values, want %d", len(pix), width*height)
	}
	for i, v := range pix {
		if math.IsNaN(v) || v < 0 || v > MaxBrightness {
			return ScalarImage{}, errors.Wrapf(ErrInvalidConfig, "scalar value %v at index %d out of range", v, i)
		}
	}
	cp := make([]float64, len(pix))
	copy(cp, pix)
	return ScalarImage{Width: width, Height: height, Pix: cp}, nil
}

// ScalarImageFromRows builds a ScalarImage from rows of equal length.
func ScalarImageFromRows(rows [][]float64) (ScalarImage, error) {
	if len(rows) == 0 {
		return ScalarImage{}, errors.Wrap(ErrInvalidConfig, "scalar image has no rows")
	}
	width := len(rows[0])
	pix := make([]float64, 0, width*len(rows))
	for y, row := range rows {
		if len(row) != width {
			return ScalarImage{}, errors.Wrapf(ErrInvalidConfig, "row %d has %d values, want %d", y, len(row), width)
		}
		pix = append(pix, row...)
	}
	return NewScalarImage(width, len(rows), pix)
}

// At returns the value at column x, row y.
func (s ScalarImage) At(x, y int) float64 {
	return s.Pix[y*s.Width+x]
}

// Transpose returns a copy of s with rows and columns swapped.
func (s ScalarImage) Transpose() ScalarImage {
	return ScalarImage{Width: s.Height, Height: s.Width, Pix: transpose(s.Pix, s.Width, s.Height)}
}

func (s ScalarImage) checkSize(width, height int) error {
	if s.Width != width || s.Height != height || len(s.Pix) != width*height {
		return errors.Wrapf(ErrInvalidConfig, "scalar image is %dx%d, want %dx%d", s.Width, s.Height, width, height)
	}
	return nil
}
