package imagehash

// DifferenceHash compares every pixel with its right neighbour: the bit is
// set when the pixel is strictly darker. src must be one column wider than
// the wanted hash; the last column only feeds the comparisons.
func DifferenceHash(src ScalarImage) BitMatrix {
	width := src.Width - 1
	bits := make([]bool, 0, width*src.Height)
	for y := 0; y < src.Height; y++ {
		row := src.Pix[y*src.Width : (y+1)*src.Width]
		for x := 0; x < width; x++ {
			bits = append(bits, row[x] < row[x+1])
		}
	}
	return newBitMatrix(width, src.Height, bits)
}
