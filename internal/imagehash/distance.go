package imagehash

import "github.com/pkg/errors"

// Distance returns the Hamming distance between a and b, the number of
// positions whose bits differ.
func Distance(a, b BitMatrix) (int, error) {
	if !a.SameShape(b) {
		return 0, errors.Wrapf(ErrShapeMismatch, "%dx%d vs %dx%d", a.width, a.height, b.width, b.height)
	}
	distance := 0
	for i := range a.bits {
		if a.bits[i] != b.bits[i] {
			distance++
		}
	}
	return distance, nil
}

// Similarity expresses the distance between a and b as a percentage, 100
// for identical hashes and 0 when every bit differs.
func Similarity(a, b BitMatrix) (float64, error) {
	dist, err := Distance(a, b)
	if err != nil {
		return 0, err
	}
	if a.Len() == 0 {
		return 0, ErrEmptyInput
	}
	return 100.0 - float64(dist)/float64(a.Len())*100.0, nil
}
