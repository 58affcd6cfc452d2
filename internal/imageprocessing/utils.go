// Package imageprocessing turns decoded images into the grayscale, resized
// brightness grids the imagehash package consumes. It also holds the small
// file helpers the server and CLI share.
package imageprocessing

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	_ "golang.org/x/image/webp" // register the webp decoder with image.Decode
)

// SupportedImageFormats is a map of supported image file extensions
var SupportedImageFormats = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImageFile checks if the file name (or bare extension) is a supported image format
func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = strings.ToLower(filename)
	}
	return SupportedImageFormats[ext]
}

// Open decodes the image file at path.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	return img, nil
}

// Decode decodes an image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// ThumbnailMode decides how a thumbnail relates to its square bounding box.
type ThumbnailMode int

const (
	// ThumbnailFit keeps the aspect ratio and fits inside the box.
	ThumbnailFit ThumbnailMode = iota
	// ThumbnailFill keeps the aspect ratio, covers the box and crops the centre.
	ThumbnailFill
	// ThumbnailStretch scales to the box exactly.
	ThumbnailStretch
)

func (m ThumbnailMode) String() string {
	switch m {
	case ThumbnailFill:
		return "fill"
	case ThumbnailStretch:
		return "stretch"
	}
	return "fit"
}

// ParseThumbnailMode accepts "fit" (the default for an empty name), "fill" or "stretch".
func ParseThumbnailMode(name string) (ThumbnailMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fit":
		return ThumbnailFit, nil
	case "fill":
		return ThumbnailFill, nil
	case "stretch":
		return ThumbnailStretch, nil
	}
	return 0, errors.Errorf("unknown thumbnail mode %q", name)
}

// GenerateThumbnail creates a smaller version of the image within a
// size x size box and returns it as a base64-encoded JPEG
func GenerateThumbnail(img image.Image, size int, mode ThumbnailMode) string {
	var thumbnail image.Image
	switch mode {
	case ThumbnailFill:
		thumbnail = imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	case ThumbnailStretch:
		thumbnail = imaging.Resize(img, size, size, imaging.Lanczos)
	default:
		thumbnail = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	var buf bytes.Buffer
	err := imaging.Encode(&buf, thumbnail, imaging.JPEG)
	if err != nil {
		return ""
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// ContentDigest returns the hex BLAKE3 digest of data. It identifies an
// upload byte-for-byte, which is what the hash cache is keyed on.
func ContentDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
