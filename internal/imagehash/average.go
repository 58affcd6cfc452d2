package imagehash

import "sort"

// AverageHash sets a bit for every value strictly greater than the mean of
// all values. The result has the shape of src.
func AverageHash(src ScalarImage) BitMatrix {
	return threshold(src.Pix, src.Width, src.Height, mean(src.Pix))
}

// MedianHash is AverageHash with the median as the threshold.
func MedianHash(src ScalarImage) BitMatrix {
	return threshold(src.Pix, src.Width, src.Height, median(src.Pix))
}

// threshold compares with >, so values equal to t come out false.
func threshold(values []float64, width, height int, t float64) BitMatrix {
	bits := make([]bool, len(values))
	for i, v := range values {
		bits[i] = v > t
	}
	return newBitMatrix(width, height, bits)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median picks the middle element after sorting, the lower one of the two
// middles for an even count. values is not modified.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}
