// Package imagehash computes perceptual fingerprints of grayscale images and
// packs them into a compact hexadecimal wire format.
//
// Every function in this package is pure: hashers take a ScalarImage that a
// collaborator already converted to grayscale and resized, and return a
// BitMatrix. Nothing here touches files, logs, or keeps global state, so all
// of it may be called from any number of goroutines at once.
package imagehash

import "github.com/pkg/errors"

// Error definitions
var (
	ErrEmptyInput     = errors.New("imagehash: cannot encode an empty matrix")
	ErrInvalidLength  = errors.New("imagehash: hash length does not match width and height")
	ErrInvalidDigit   = errors.New("imagehash: invalid hexadecimal digit")
	ErrInvalidPadding = errors.New("imagehash: non-zero padding bits")
	ErrShapeMismatch  = errors.New("imagehash: hash shapes do not match")
	ErrInvalidConfig  = errors.New("imagehash: invalid configuration")
)
