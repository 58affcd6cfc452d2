package imageprocessing

import (
	"bytes"
	"image"
	"io"

	"github.com/pkg/errors"

	"imghash/internal/imagehash"
)

// Hasher ties a hash configuration to a conversion backend so callers can
// go straight from a decoded image or a file to a BitMatrix.
type Hasher struct {
	Config    imagehash.Config
	Converter Converter
}

// NewHasher validates cfg and returns a Hasher using backend for resizing.
func NewHasher(cfg imagehash.Config, backend ResizeBackend) (*Hasher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{Config: cfg, Converter: Converter{Backend: backend}}, nil
}

// HashImage converts img to the size the configured algorithm expects and
// hashes it.
func (h *Hasher) HashImage(img image.Image) (imagehash.BitMatrix, error) {
	width, height := h.Config.SourceSize()
	src, err := h.Converter.Convert(img, width, height, h.Config.ColorSpace)
	if err != nil {
		return imagehash.BitMatrix{}, err
	}
	return imagehash.Hash(src, h.Config)
}

// HashFile opens and hashes the image at path.
func (h *Hasher) HashFile(path string) (imagehash.BitMatrix, error) {
	img, err := Open(path)
	if err != nil {
		return imagehash.BitMatrix{}, err
	}
	return h.HashImage(img)
}

// HashReader decodes and hashes the image read from r.
func (h *Hasher) HashReader(r io.Reader) (imagehash.BitMatrix, error) {
	img, err := Decode(r)
	if err != nil {
		return imagehash.BitMatrix{}, err
	}
	return h.HashImage(img)
}

// HashBytes hashes an encoded image held in memory.
func (h *Hasher) HashBytes(data []byte) (imagehash.BitMatrix, error) {
	if len(data) == 0 {
		return imagehash.BitMatrix{}, errors.New("no image data")
	}
	return h.HashReader(bytes.NewReader(data))
}
