package imagehash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FormatShaped encodes m together with its shape, e.g. "8x8:3f2a0c1d5e6b7a88".
func FormatShaped(m BitMatrix) (string, error) {
	hex, err := Encode(m)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%dx%d:%s", m.width, m.height, hex), nil
}

// ParseShaped is the inverse of FormatShaped.
func ParseShaped(s string) (BitMatrix, error) {
	shape, hex, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "shaped hash %q has no size prefix", s)
	}
	ws, hs, ok := strings.Cut(shape, "x")
	if !ok {
		return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "bad size %q", shape)
	}
	width, err := strconv.Atoi(ws)
	if err != nil {
		return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "bad width %q", ws)
	}
	height, err := strconv.Atoi(hs)
	if err != nil {
		return BitMatrix{}, errors.Wrapf(ErrInvalidConfig, "bad height %q", hs)
	}
	return Decode(hex, width, height)
}
