package imagehash

import (
	"strings"

	"github.com/pkg/errors"
)

const hexDigits = "0123456789abcdef"

// Encode packs m into lower-case hexadecimal, compatible with the Python
// imagehash package. The row-major bits are left-padded with zero bits up
// to a multiple of four and read four at a time, most significant bit
// first.
func Encode(m BitMatrix) (string, error) {
	n := len(m.bits)
	if n == 0 {
		return "", ErrEmptyInput
	}

	padding := (4 - n%4) % 4
	var b strings.Builder
	b.Grow((n + padding) / 4)

	var nibble byte
	for i := 0; i < n+padding; i++ {
		nibble <<= 1
		if i >= padding && m.bits[i-padding] {
			nibble |= 1
		}
		if i%4 == 3 {
			b.WriteByte(hexDigits[nibble])
			nibble = 0
		}
	}
	return b.String(), nil
}

// Decode unpacks a string produced by Encode into a width x height matrix.
// The string does not record its shape, so the caller must supply it.
//
// Bits that Encode used for padding must be zero; a string with any of
// them set is rejected with ErrInvalidPadding.
func Decode(s string, width, height int) (BitMatrix, error) {
	if err := checkShape(width, height); err != nil {
		return BitMatrix{}, err
	}

	n := width * height
	padding := (4 - n%4) % 4
	digits := n / 4
	if padding > 0 {
		digits++
	}
	if len(s) != digits {
		return BitMatrix{}, errors.Wrapf(ErrInvalidLength, "got %d digits, want %d for %dx%d", len(s), digits, width, height)
	}

	bits := make([]bool, 0, 4*len(s))
	for i := 0; i < len(s); i++ {
		v, ok := hexValue(s[i])
		if !ok {
			return BitMatrix{}, errors.Wrapf(ErrInvalidDigit, "%q at offset %d", s[i], i)
		}
		for shift := 3; shift >= 0; shift-- {
			bits = append(bits, v>>uint(shift)&1 == 1)
		}
	}

	for i := 0; i < padding; i++ {
		if bits[i] {
			return BitMatrix{}, errors.Wrapf(ErrInvalidPadding, "leading digit %q for %dx%d", s[0], width, height)
		}
	}
	bits = bits[padding:]

	if len(bits) != n || n/width != height {
		return BitMatrix{}, errors.Errorf("imagehash: decoded %d bits for %dx%d", len(bits), width, height)
	}
	return newBitMatrix(width, height, bits), nil
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
