package imagehash

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Algorithm selects one of the hashing variants.
type Algorithm int

const (
	Average Algorithm = iota
	Median
	Difference
	Perceptual
)

var algorithmNames = map[Algorithm]string{
	Average:    "average",
	Median:     "median",
	Difference: "difference",
	Perceptual: "perceptual",
}

var algorithmAliases = map[string]Algorithm{
	"average":    Average,
	"ahash":      Average,
	"median":     Median,
	"mhash":      Median,
	"difference": Difference,
	"dhash":      Difference,
	"perceptual": Perceptual,
	"phash":      Perceptual,
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAlgorithm maps a name such as "perceptual" or "phash" to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	a, ok := algorithmAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidConfig, "unknown algorithm %q", name)
	}
	return a, nil
}

// ColorSpace selects the luma weights used when converting to grayscale.
// The hashers never look at it; it is carried in Config for the
// conversion step.
type ColorSpace int

const (
	REC601 ColorSpace = iota
	REC709
)

// Coefficients returns the red, green and blue luma weights.
func (c ColorSpace) Coefficients() [3]float32 {
	if c == REC709 {
		return [3]float32{0.2126, 0.7152, 0.0722}
	}
	return [3]float32{0.299, 0.587, 0.114}
}

func (c ColorSpace) String() string {
	switch c {
	case REC601:
		return "rec601"
	case REC709:
		return "rec709"
	}
	return "unknown"
}

// ParseColorSpace accepts "rec601" or "rec709", case-insensitively.
func ParseColorSpace(name string) (ColorSpace, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rec601", "601", "":
		return REC601, nil
	case "rec709", "709":
		return REC709, nil
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown color space %q", name)
}

// Config describes one hash computation. Width and Height are the shape
// of the resulting BitMatrix; Factor is only used by Perceptual.
type Config struct {
	Algorithm  Algorithm
	Width      int
	Height     int
	Factor     int
	ColorSpace ColorSpace
}

// DefaultConfig returns the usual 8x8 configuration for a.
func DefaultConfig(a Algorithm) Config {
	cfg := Config{Algorithm: a, Width: 8, Height: 8, ColorSpace: REC601}
	if a == Perceptual {
		cfg.Factor = 4
	}
	return cfg
}

// Validate reports ErrInvalidConfig for shapes and parameters no hasher
// can serve.
func (c Config) Validate() error {
	if _, ok := algorithmNames[c.Algorithm]; !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown algorithm %d", c.Algorithm)
	}
	if c.Width < 1 || c.Height < 1 {
		return errors.Wrapf(ErrInvalidConfig, "hash size %dx%d", c.Width, c.Height)
	}
	if c.ColorSpace != REC601 && c.ColorSpace != REC709 {
		return errors.Wrapf(ErrInvalidConfig, "unknown color space %d", c.ColorSpace)
	}
	if c.Algorithm == Perceptual && c.Factor < 1 {
		// The crop is Width x Height, which only fits inside the upscaled
		// transform when the factor is at least one.
		return errors.Wrapf(ErrInvalidConfig, "perceptual factor %d", c.Factor)
	}
	if c.Algorithm == Perceptual && (c.Factor > math.MaxInt/c.Width || c.Factor > math.MaxInt/c.Height) {
		return errors.Wrapf(ErrInvalidConfig, "perceptual factor %d overflows %dx%d", c.Factor, c.Width, c.Height)
	}
	return checkShape(c.SourceSize())
}

// CheckLimit rejects configurations whose hash is larger than maxSize in
// either direction, or whose source grid is larger than 4*maxSize. It keeps
// untrusted requests from asking for huge resizes or transforms.
func (c Config) CheckLimit(maxSize int) error {
	if c.Width > maxSize || c.Height > maxSize {
		return errors.Wrapf(ErrInvalidConfig, "hash size %dx%d exceeds %d", c.Width, c.Height, maxSize)
	}
	w, h := c.SourceSize()
	if w > 4*maxSize || h > 4*maxSize {
		return errors.Wrapf(ErrInvalidConfig, "source size %dx%d exceeds %d", w, h, 4*maxSize)
	}
	return nil
}

// SourceSize is the size of the ScalarImage the hasher expects.
func (c Config) SourceSize() (width, height int) {
	switch c.Algorithm {
	case Difference:
		return c.Width + 1, c.Height
	case Perceptual:
		return c.Width * c.Factor, c.Height * c.Factor
	}
	return c.Width, c.Height
}

// Hash runs the hasher selected by c over src. src must already have the
// shape returned by c.SourceSize.
func Hash(src ScalarImage, c Config) (BitMatrix, error) {
	if err := c.Validate(); err != nil {
		return BitMatrix{}, err
	}
	w, h := c.SourceSize()
	if err := src.checkSize(w, h); err != nil {
		return BitMatrix{}, err
	}
	switch c.Algorithm {
	case Average:
		return AverageHash(src), nil
	case Median:
		return MedianHash(src), nil
	case Difference:
		return DifferenceHash(src), nil
	}
	return PerceptualHash(src, c.Width, c.Height)
}
