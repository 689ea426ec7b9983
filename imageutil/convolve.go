package imageutil

import (
	"fmt"
	"math"
)

// Kernel represents a convolution kernel.
type Kernel struct {
	Values [][]float64
	Width  int
	Height int
}

// NewKernel creates a new kernel from a 2D slice.
func NewKernel(values [][]float64) *Kernel {
	height := len(values)
	width := 0
	if height > 0 {
		width = len(values[0])
	}
	return &Kernel{
		Values: values,
		Width:  width,
		Height: height,
	}
}

// smallGaussians are the fixed kernels OpenCV uses for sizes up to 7
// when sigma is not given.
var smallGaussians = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// gaussianWeights returns the normalised 1D Gaussian of the given odd
// size. Larger sizes derive sigma from the size the way OpenCV does
// when it is passed as 0.
func gaussianWeights(size int) []float64 {
	if w, ok := smallGaussians[size]; ok {
		return append([]float64(nil), w...)
	}
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	weights := make([]float64, size)
	var sum float64
	for i := range weights {
		d := float64(i - size/2)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// GaussianKernel returns the size x size Gaussian kernel.
// A size of 3 gives the familiar 1-2-1 / 16 kernel.
func GaussianKernel(size int) (*Kernel, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("gaussian kernel size %d: %w", size, ErrInvalidDimensions)
	}
	w := gaussianWeights(size)
	values := make([][]float64, size)
	for y := range values {
		values[y] = make([]float64, size)
		for x := range values[y] {
			values[y][x] = w[y] * w[x]
		}
	}
	return NewKernel(values), nil
}

// Convolve applies a convolution kernel to an RGBA image.
// Borders are reflected without repeating the edge pixel
// (OpenCV's BORDER_REFLECT_101).
func Convolve(img *RGBAImage, kernel *Kernel) *RGBAImage {
	width, height := img.Width(), img.Height()
	dst := NewRGBAImage(width, height)

	halfKW := kernel.Width / 2
	halfKH := kernel.Height / 2

	for y := 0; y < height; y++ {
		out := dst.Row(y)
		for x := 0; x < width; x++ {
			var sumR, sumG, sumB float64

			for ky := 0; ky < kernel.Height; ky++ {
				row := img.Row(reflect101(y+ky-halfKH, height))
				for kx := 0; kx < kernel.Width; kx++ {
					sx := reflect101(x+kx-halfKW, width) * 4
					k := kernel.Values[ky][kx]

					sumR += float64(row[sx]) * k
					sumG += float64(row[sx+1]) * k
					sumB += float64(row[sx+2]) * k
				}
			}

			out[x*4] = clampUint8(sumR)
			out[x*4+1] = clampUint8(sumG)
			out[x*4+2] = clampUint8(sumB)
		}
	}

	return dst
}

// GaussianBlur blurs img with a size x size Gaussian kernel.
func GaussianBlur(img *RGBAImage, size int) (*RGBAImage, error) {
	kernel, err := GaussianKernel(size)
	if err != nil {
		return nil, err
	}
	return Convolve(img, kernel), nil
}

// AddWeighted returns a*alpha + b*beta + gamma per channel, rounded and
// saturated to [0, 255].
func AddWeighted(a *RGBAImage, alpha float64, b *RGBAImage, beta, gamma float64) (*RGBAImage, error) {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return nil, fmt.Errorf("add weighted %dx%d and %dx%d: %w",
			a.Width(), a.Height(), b.Width(), b.Height(), ErrInvalidDimensions)
	}
	dst := NewRGBAImage(a.Width(), a.Height())
	for y := 0; y < a.Height(); y++ {
		ra, rb, out := a.Row(y), b.Row(y), dst.Row(y)
		for i := 0; i < len(out); i += 4 {
			for c := 0; c < 3; c++ {
				out[i+c] = clampUint8(float64(ra[i+c])*alpha + float64(rb[i+c])*beta + gamma)
			}
		}
	}
	return dst, nil
}

// reflect101 maps an out of range coordinate back into [0, n).
func reflect101(v, n int) int {
	if n == 1 {
		return 0
	}
	for v < 0 || v >= n {
		if v < 0 {
			v = -v
		} else {
			v = 2*n - 2 - v
		}
	}
	return v
}

// clampUint8 clamps a float64 to [0, 255] and converts to uint8.
func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
