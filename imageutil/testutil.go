package imageutil

import (
	"math"
	"math/rand"
)

// CreateGradientImage creates a horizontal gray gradient test image.
func CreateGradientImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for x := 0; x < width; x++ {
		v := uint8(255 * x / max(width-1, 1))
		for y := 0; y < height; y++ {
			img.SetRGB(x, y, RGB{R: v, G: v, B: v})
		}
	}
	return img
}

// CreateSkyImage creates a vertical blue-to-orange gradient, the kind of
// smooth ramp that bands badly without dithering.
func CreateSkyImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		c := RGB{
			R: uint8(40 + t*200),
			G: uint8(80 + t*70),
			B: uint8(200 - t*150),
		}
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, c)
		}
	}
	return img
}

// CreateCheckerboardImage creates a checkerboard pattern for edge testing.
func CreateCheckerboardImage(width, height, squareSize int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/squareSize)+(y/squareSize))%2 == 0 {
				img.SetRGB(x, y, RGB{R: 255, G: 255, B: 255})
			}
		}
	}
	return img
}

// CreateSolidImage creates a solid color image.
func CreateSolidImage(width, height int, c RGB) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, c)
		}
	}
	return img
}

// ColorBars are the colours of CreateColorBarsImage, left to right.
var ColorBars = []RGB{
	{255, 255, 255}, // White
	{255, 255, 0},   // Yellow
	{0, 255, 255},   // Cyan
	{0, 255, 0},     // Green
	{255, 0, 255},   // Magenta
	{255, 0, 0},     // Red
	{0, 0, 255},     // Blue
	{0, 0, 0},       // Black
}

// CreateColorBarsImage creates a color bars test pattern.
func CreateColorBarsImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	barWidth := max(width/len(ColorBars), 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, ColorBars[min(x/barWidth, len(ColorBars)-1)])
		}
	}
	return img
}

// CreateEdgeImage creates a gray image with a white rectangle and a black
// diagonal for edge detection tests.
func CreateEdgeImage(width, height int) *RGBAImage {
	img := CreateSolidImage(width, height, RGB{R: 128, G: 128, B: 128})

	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.SetRGB(x, y, RGB{R: 255, G: 255, B: 255})
		}
	}
	for i := 0; i < min(width, height)/2; i++ {
		img.SetRGB(i, i, RGB{})
	}
	return img
}

// CreateClusteredImage fills the image with centers[i] plus up to
// ±spread of uniform noise per channel, assigning each pixel to a
// centre in vertical stripes.
func CreateClusteredImage(width, height int, centers []RGB, spread int, seed int64) *RGBAImage {
	rng := rand.New(rand.NewSource(seed))
	jitter := func(v uint8) uint8 {
		if spread == 0 {
			return v
		}
		n := int(v) + rng.Intn(2*spread+1) - spread
		return uint8(max(0, min(255, n)))
	}

	img := NewRGBAImage(width, height)
	stripe := max(width/len(centers), 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := centers[min(x/stripe, len(centers)-1)]
			img.SetRGB(x, y, RGB{R: jitter(c.R), G: jitter(c.G), B: jitter(c.B)})
		}
	}
	return img
}

// CreateNoiseImage creates an image of uniformly random colours.
func CreateNoiseImage(width, height int, seed int64) *RGBAImage {
	rng := rand.New(rand.NewSource(seed))
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, RGB{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
			})
		}
	}
	return img
}

// CalculateMSE calculates the Mean Squared Error between two RGBA images.
func CalculateMSE(img1, img2 *RGBAImage) float64 {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return math.MaxFloat64
	}

	width, height := img1.Width(), img1.Height()
	var sumSq float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c1, c2 := img1.GetRGB(x, y), img2.GetRGB(x, y)
			dr := float64(c1.R) - float64(c2.R)
			dg := float64(c1.G) - float64(c2.G)
			db := float64(c1.B) - float64(c2.B)
			sumSq += dr*dr + dg*dg + db*db
		}
	}

	return sumSq / float64(width*height*3)
}

// CalculateMSEGray calculates the Mean Squared Error between two grayscale images.
func CalculateMSEGray(img1, img2 *GrayImage) float64 {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return math.MaxFloat64
	}

	width, height := img1.Width(), img1.Height()
	var sumSq float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := float64(img1.GetGray(x, y)) - float64(img2.GetGray(x, y))
			sumSq += d * d
		}
	}

	return sumSq / float64(width*height)
}

// CalculateMaxDiff calculates the maximum channel difference between two images.
func CalculateMaxDiff(img1, img2 *RGBAImage) int {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return 256
	}

	maxDiff := 0
	for y := 0; y < img1.Height(); y++ {
		r1, r2 := img1.Row(y), img2.Row(y)
		for i := range r1 {
			if i%4 == 3 {
				continue
			}
			maxDiff = max(maxDiff, abs(int(r1[i])-int(r2[i])))
		}
	}
	return maxDiff
}

// CalculateJaccardIndex calculates the Jaccard similarity between two binary edge maps.
// Returns a value between 0 (no overlap) and 1 (perfect overlap).
func CalculateJaccardIndex(edges1, edges2 *GrayImage) float64 {
	if edges1.Width() != edges2.Width() || edges1.Height() != edges2.Height() {
		return 0
	}

	var intersection, union int
	for y := 0; y < edges1.Height(); y++ {
		for x := 0; x < edges1.Width(); x++ {
			e1 := edges1.GetGray(x, y) > 128
			e2 := edges2.GetGray(x, y) > 128
			if e1 && e2 {
				intersection++
			}
			if e1 || e2 {
				union++
			}
		}
	}

	if union == 0 {
		return 1.0 // Both empty
	}
	return float64(intersection) / float64(union)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
