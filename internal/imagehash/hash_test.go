package imagehash

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustScalars(t *testing.T, rows [][]float64) ScalarImage {
	t.Helper()
	s, err := ScalarImageFromRows(rows)
	require.NoError(t, err)
	return s
}

var sample = [][]float64{
	{124, 96, 98},
	{76, 89, 189},
	{98, 73, 76},
}

func TestAverageHash(t *testing.T) {
	got := AverageHash(mustScalars(t, sample))
	assert.Equal(t, [][]bool{{T, F, F}, {F, F, T}, {F, F, F}}, got.Rows())
}

func TestAverageHashTieIsFalse(t *testing.T) {
	got := AverageHash(mustScalars(t, [][]float64{{10, 10}, {10, 10}}))
	assert.Equal(t, [][]bool{{F, F}, {F, F}}, got.Rows())
}

func TestMedianHash(t *testing.T) {
	got := MedianHash(mustScalars(t, sample))
	assert.Equal(t, [][]bool{{T, F, T}, {F, F, T}, {T, F, F}}, got.Rows())
}

func TestMedianHashEvenCountUsesLowerMiddle(t *testing.T) {
	// Sorted 1 2 3 4: the threshold is 2, so 2 itself is false and 3 is true.
	got := MedianHash(mustScalars(t, [][]float64{{4, 1}, {3, 2}}))
	assert.Equal(t, [][]bool{{T, F}, {T, F}}, got.Rows())
}

func TestDifferenceHash(t *testing.T) {
	src := mustScalars(t, [][]float64{
		{124, 96, 98, 67},
		{76, 89, 189, 176},
		{98, 73, 76, 23},
	})
	got := DifferenceHash(src)
	assert.Equal(t, 3, got.Width())
	assert.Equal(t, 3, got.Height())
	assert.Equal(t, [][]bool{{F, T, F}, {T, T, F}, {F, T, F}}, got.Rows())
}

func gradient(width, height int) ScalarImage {
	pix := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = float64((x*7 + y*13 + x*y) % 256)
		}
	}
	return ScalarImage{Width: width, Height: height, Pix: pix}
}

func TestPerceptualHashReference(t *testing.T) {
	got, err := PerceptualHash(gradient(32, 32), 8, 8)
	require.NoError(t, err)

	encoded, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, "878b05039fbcb8b3", encoded)
}

func TestPerceptualHashFollowsTranspose(t *testing.T) {
	src := gradient(32, 32)

	straight, err := PerceptualHash(src, 8, 8)
	require.NoError(t, err)
	flipped, err := PerceptualHash(src.Transpose(), 8, 8)
	require.NoError(t, err)

	assert.False(t, straight.Equal(flipped), "gradient is not symmetric, hashes should differ")
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, straight.At(x, y), flipped.At(y, x), "bit %d,%d", x, y)
		}
	}
}

func TestPerceptualHashIsPure(t *testing.T) {
	src := gradient(32, 32)
	cp, err := NewScalarImage(src.Width, src.Height, src.Pix)
	require.NoError(t, err)

	a, err := PerceptualHash(src, 8, 8)
	require.NoError(t, err)
	b, err := PerceptualHash(cp, 8, 8)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, gradient(32, 32).Pix, src.Pix, "input must not be modified")
}

func TestPerceptualHashCropTooLarge(t *testing.T) {
	_, err := PerceptualHash(gradient(4, 4), 8, 8)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestHashDispatch(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
		src  ScalarImage
		want string
	}{
		{name: "average", cfg: Config{Algorithm: Average, Width: 3, Height: 3}, src: mustScalars(t, sample), want: "3x3:108"},
		{name: "median", cfg: Config{Algorithm: Median, Width: 3, Height: 3}, src: mustScalars(t, sample), want: "3x3:14c"},
		{
			name: "difference",
			cfg:  Config{Algorithm: Difference, Width: 3, Height: 3},
			src:  mustScalars(t, [][]float64{{124, 96, 98, 67}, {76, 89, 189, 176}, {98, 73, 76, 23}}),
			want: "3x3:0b2",
		},
		{name: "perceptual", cfg: DefaultConfig(Perceptual), src: gradient(32, 32), want: "8x8:878b05039fbcb8b3"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Hash(tc.src, tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestHashRejectsWrongSourceSize(t *testing.T) {
	// Difference needs one extra column.
	_, err := Hash(mustScalars(t, sample), Config{Algorithm: Difference, Width: 3, Height: 3})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default_average", cfg: DefaultConfig(Average)},
		{name: "default_perceptual", cfg: DefaultConfig(Perceptual)},
		{name: "zero_width", cfg: Config{Algorithm: Median, Width: 0, Height: 8}, wantErr: true},
		{name: "negative_height", cfg: Config{Algorithm: Median, Width: 8, Height: -2}, wantErr: true},
		{name: "perceptual_without_factor", cfg: Config{Algorithm: Perceptual, Width: 8, Height: 8}, wantErr: true},
		{name: "unknown_algorithm", cfg: Config{Algorithm: Algorithm(9), Width: 8, Height: 8}, wantErr: true},
		{name: "unknown_color_space", cfg: Config{Algorithm: Average, Width: 8, Height: 8, ColorSpace: ColorSpace(5)}, wantErr: true},
		{name: "factor_overflows", cfg: Config{Algorithm: Perceptual, Width: math.MaxInt / 4, Height: 8, Factor: 8}, wantErr: true},
		{name: "difference_width_overflows", cfg: Config{Algorithm: Difference, Width: math.MaxInt, Height: 1}, wantErr: true},
		{name: "size_overflows", cfg: Config{Algorithm: Average, Width: math.MaxInt, Height: 2}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfigCheckLimit(t *testing.T) {
	assert.NoError(t, DefaultConfig(Perceptual).CheckLimit(64))
	assert.NoError(t, Config{Algorithm: Difference, Width: 63, Height: 64}.CheckLimit(64))

	err := Config{Algorithm: Average, Width: 50000, Height: 50000}.CheckLimit(64)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)

	err = Config{Algorithm: Perceptual, Width: 64, Height: 64, Factor: 8}.CheckLimit(64)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
}

func TestSourceSize(t *testing.T) {
	w, h := Config{Algorithm: Difference, Width: 8, Height: 8}.SourceSize()
	assert.Equal(t, []int{9, 8}, []int{w, h})

	w, h = Config{Algorithm: Perceptual, Width: 8, Height: 6, Factor: 4}.SourceSize()
	assert.Equal(t, []int{32, 24}, []int{w, h})

	w, h = DefaultConfig(Median).SourceSize()
	assert.Equal(t, []int{8, 8}, []int{w, h})
}

func TestParseAlgorithm(t *testing.T) {
	for name, want := range map[string]Algorithm{"average": Average, "dhash": Difference, "PHash": Perceptual, " median ": Median} {
		got, err := ParseAlgorithm(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}
	_, err := ParseAlgorithm("wavelet")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestNewScalarImageValidation(t *testing.T) {
	_, err := NewScalarImage(2, 2, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = NewScalarImage(2, 1, []float64{1, 300})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = ScalarImageFromRows([][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
