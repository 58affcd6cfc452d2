package imageprocessing

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"imghash/internal/imagehash"
)

// ResizeBackend selects the library that performs the Lanczos resize.
type ResizeBackend int

const (
	// ResizeImaging uses github.com/disintegration/imaging.
	ResizeImaging ResizeBackend = iota
	// ResizeNfnt uses github.com/nfnt/resize.
	ResizeNfnt
)

func (b ResizeBackend) String() string {
	if b == ResizeNfnt {
		return "nfnt"
	}
	return "imaging"
}

// ParseResizeBackend accepts "imaging" (the default for an empty name) or "nfnt".
func ParseResizeBackend(name string) (ResizeBackend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "imaging":
		return ResizeImaging, nil
	case "nfnt":
		return ResizeNfnt, nil
	}
	return 0, errors.Errorf("unknown resize backend %q", name)
}

// Converter produces the ScalarImage for a hasher: grayscale first, then
// an exact resize to the requested size. Output depends only on the input
// pixels and the parameters.
type Converter struct {
	Backend ResizeBackend
}

// Grayscale converts img to 8-bit luma using the weights of cs. Colour
// channels are taken without alpha premultiplication and the weighted sum
// is truncated, not rounded.
func Grayscale(img image.Image, cs imagehash.ColorSpace) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	k := cs.Coefficients()

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			luma := k[0]*float32(c.R) + k[1]*float32(c.G) + k[2]*float32(c.B)
			if luma > imagehash.MaxBrightness {
				luma = imagehash.MaxBrightness
			}
			gray.SetGray(x, y, color.Gray{Y: uint8(luma)})
		}
	}
	return gray
}

// Convert returns img as a width x height grid of brightness values.
func (c Converter) Convert(img image.Image, width, height int, cs imagehash.ColorSpace) (imagehash.ScalarImage, error) {
	if width < 1 || height < 1 {
		return imagehash.ScalarImage{}, errors.Wrapf(imagehash.ErrInvalidConfig, "resize to %dx%d", width, height)
	}
	if img == nil || img.Bounds().Empty() {
		return imagehash.ScalarImage{}, errors.New("cannot convert an empty image")
	}

	resized := c.resize(Grayscale(img, cs), width, height)
	bounds := resized.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return imagehash.ScalarImage{}, errors.Errorf("%s resize produced %dx%d, want %dx%d", c.Backend, bounds.Dx(), bounds.Dy(), width, height)
	}

	pix := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			pix = append(pix, float64(g.Y))
		}
	}
	return imagehash.NewScalarImage(width, height, pix)
}

func (c Converter) resize(gray *image.Gray, width, height int) image.Image {
	if c.Backend == ResizeNfnt {
		return resize.Resize(uint(width), uint(height), gray, resize.Lanczos3)
	}
	return imaging.Resize(gray, width, height, imaging.Lanczos)
}
