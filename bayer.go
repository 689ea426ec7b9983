package img2gba

import "github.com/wbrown/img2gba/imageutil"

// BayerSize is the side length of the ordered dither tile.
const BayerSize = 8

// BayerMatrix is the classic 8x8 ordered dither tile. Every value in
// 0..63 appears once and neighbouring cells are as far apart as the
// recursive Bayer construction allows. It is never written to.
var BayerMatrix = [BayerSize][BayerSize]int{
	{0, 48, 12, 60, 3, 51, 15, 63},
	{32, 16, 44, 28, 35, 19, 47, 31},
	{8, 56, 4, 52, 11, 59, 7, 55},
	{40, 24, 36, 20, 43, 27, 39, 23},
	{2, 50, 14, 62, 1, 49, 13, 61},
	{34, 18, 46, 30, 33, 17, 45, 29},
	{10, 58, 6, 54, 9, 57, 5, 53},
	{42, 26, 38, 22, 41, 25, 37, 21},
}

// bayerOffsets holds DitherOffset of every cell for one strength.
type bayerOffsets [BayerSize][BayerSize]int

// Matrix returns a copy of BayerMatrix.
func Matrix() [BayerSize][BayerSize]int {
	return BayerMatrix
}

// DitherOffset maps threshold t (0..63) to an additive offset in roughly
// [-strength/2, +strength/2]: (t - 31.5) / 63 * strength, truncated
// toward zero.
func DitherOffset(t, strength int) int {
	return int((float64(t) - 31.5) / 63.0 * float64(strength))
}

func offsetsFor(strength int) *bayerOffsets {
	var o bayerOffsets
	for y := range o {
		for x := range o[y] {
			o[y][x] = DitherOffset(BayerMatrix[y][x], strength)
		}
	}
	return &o
}

// Dither returns a copy of img with the Bayer offset for each pixel
// added to all three channels and clamped to [0, 255]. Shifting the
// channels together nudges luminance without changing hue. A strength
// of 0 returns an identical copy; negative strengths invert the pattern.
func Dither(img *imageutil.RGBAImage, strength int) *imageutil.RGBAImage {
	return DitherWorkers(img, strength, defaultWorkers())
}

// DitherWorkers is Dither with the rows split across the given number
// of goroutines. The result does not depend on the worker count.
func DitherWorkers(img *imageutil.RGBAImage, strength, workers int) *imageutil.RGBAImage {
	out := img.Clone()
	if strength == 0 {
		return out
	}

	offsets := offsetsFor(strength)
	splitRows(out.Height(), workers, func(_, start, end int) {
		for y := start; y < end; y++ {
			row := out.Row(y)
			tile := &offsets[y%BayerSize]
			for x := 0; x < out.Width(); x++ {
				off := tile[x%BayerSize]
				p := row[x*4 : x*4+3]
				for c := range p {
					p[c] = clamp8(int(p[c]) + off)
				}
			}
		}
	})
	return out
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
