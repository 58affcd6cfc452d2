package imagehash

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// BitMatrix is a fixed-shape grid of bits, stored row-major with x as the
// fast-varying index. It is the canonical form of a hash before encoding.
//
// A BitMatrix is immutable once built; the zero value is the empty matrix,
// which Encode rejects.
type BitMatrix struct {
	width  int
	height int
	bits   []bool
}

// NewBitMatrix returns a matrix holding a copy of bits.
func NewBitMatrix(width, height int, bits []bool) (BitMatrix, error) {
	if err := checkShape(width, height); err != nil {
		return BitMatrix{}, err
	}
	if len(bits) != width*height {
		return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "bit matrix has %d bits, want %d", len(bits), width*height)
	}
	cp := make([]bool, len(bits))
	copy(cp, bits)
	return BitMatrix{width: width, height: height, bits: cp}, nil
}

// BitMatrixFromRows builds a matrix from rows of equal length.
func BitMatrixFromRows(rows [][]bool) (BitMatrix, error) {
	if len(rows) == 0 {
		return BitMatrix{}, errors.Wrap(ErrInvalidConfig, "bit matrix has no rows")
	}
	width := len(rows[0])
	bits := make([]bool, 0, width*len(rows))
	for y, row := range rows {
		if len(row) != width {
			return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "row %d has %d bits, want %d", y, len(row), width)
		}
		bits = append(bits, row...)
	}
	return NewBitMatrix(width, len(rows), bits)
}

// checkShape rejects sizes below 1x1 and sizes whose bit count overflows int.
func checkShape(width, height int) error {
	if width < 1 || height < 1 {
		return errors.Wrapf(ErrInvalidConfig, "size %dx%d", width, height)
	}
	if width > math.MaxInt/height {
		return errors.Wrapf(ErrInvalidConfig, "size %dx%d overflows", width, height)
	}
	return nil
}

// newBitMatrix takes ownership of bits; callers guarantee the shape.
func newBitMatrix(width, height int, bits []bool) BitMatrix {
	return BitMatrix{width: width, height: height, bits: bits}
}

func (m BitMatrix) Width() int  { return m.width }
func (m BitMatrix) Height() int { return m.height }

// Len is the number of bits, Width*Height.
func (m BitMatrix) Len() int { return len(m.bits) }

// At reports the bit at column x, row y.
func (m BitMatrix) At(x, y int) bool {
	return m.bits[y*m.width+x]
}

// Bits returns the bits flattened row-major.
func (m BitMatrix) Bits() []bool {
	cp := make([]bool, len(m.bits))
	copy(cp, m.bits)
	return cp
}

// Rows returns the bits as one slice per row.
func (m BitMatrix) Rows() [][]bool {
	rows := make([][]bool, m.height)
	for y := range rows {
		rows[y] = make([]bool, m.width)
		copy(rows[y], m.bits[y*m.width:(y+1)*m.width])
	}
	return rows
}

// SameShape reports whether m and o have identical width and height.
func (m BitMatrix) SameShape(o BitMatrix) bool {
	return m.width == o.width && m.height == o.height
}

// Equal reports whether m and o have the same shape and the same bits.
func (m BitMatrix) Equal(o BitMatrix) bool {
	if !m.SameShape(o) || len(m.bits) != len(o.bits) {
		return false
	}
	for i := range m.bits {
		if m.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// String formats m as a shaped hash, "WxH:hex". The empty matrix prints
// as "0x0:".
func (m BitMatrix) String() string {
	s, err := FormatShaped(m)
	if err != nil {
		return fmt.Sprintf("%dx%d:", m.width, m.height)
	}
	return s
}
