package imageutil

import "math"

// gradient holds per-pixel Sobel derivatives of a grayscale image.
type gradient struct {
	width, height int
	dx, dy        []float64
	mag           []float64
}

// Canny performs Canny edge detection on a grayscale image and returns a
// binary mask (0 or 255). Like OpenCV's default it uses 3x3 Sobel
// derivatives and the L1 gradient norm, without a pre-blur.
// Typical values: lowThreshold=60, highThreshold=140.
func Canny(gray *GrayImage, lowThreshold, highThreshold float64) *GrayImage {
	if lowThreshold > highThreshold {
		lowThreshold, highThreshold = highThreshold, lowThreshold
	}
	g := sobel(gray)
	candidates := g.suppress()
	return g.hysteresis(candidates, lowThreshold, highThreshold)
}

// sobel computes horizontal and vertical Sobel derivatives.
func sobel(img *GrayImage) *gradient {
	width, height := img.Width(), img.Height()
	g := &gradient{
		width:  width,
		height: height,
		dx:     make([]float64, width*height),
		dy:     make([]float64, width*height),
		mag:    make([]float64, width*height),
	}

	at := func(x, y int) float64 {
		return float64(img.GetGray(reflect101(x, width), reflect101(y, height)))
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, b, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx := (tr + 2*r + br) - (tl + 2*l + bl)
			gy := (bl + 2*b + br) - (tl + 2*t + tr)
			i := y*width + x
			g.dx[i], g.dy[i] = gx, gy
			g.mag[i] = math.Abs(gx) + math.Abs(gy)
		}
	}
	return g
}

// suppress keeps only magnitudes that are local maxima along the
// gradient direction, quantised to 0, 45, 90 and 135 degrees. Border
// pixels never survive.
func (g *gradient) suppress() []float64 {
	w, h := g.width, g.height
	out := make([]float64, w*h)
	tan22 := math.Tan(math.Pi / 8)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := g.mag[i]
			if m == 0 {
				continue
			}
			ax, ay := math.Abs(g.dx[i]), math.Abs(g.dy[i])

			var a, b float64
			switch {
			case ay <= ax*tan22:
				a, b = g.mag[i-1], g.mag[i+1]
			case ay >= ax/tan22:
				a, b = g.mag[i-w], g.mag[i+w]
			case (g.dx[i] < 0) != (g.dy[i] < 0):
				a, b = g.mag[i-w+1], g.mag[i+w-1]
			default:
				a, b = g.mag[i-w-1], g.mag[i+w+1]
			}
			// Ties go to the earlier pixel so plateaus give thin lines.
			if m > a && m >= b {
				out[i] = m
			}
		}
	}
	return out
}

// hysteresis marks strong pixels and grows them through 8-connected
// weak pixels.
func (g *gradient) hysteresis(candidates []float64, low, high float64) *GrayImage {
	w, h := g.width, g.height
	edges := NewGrayImage(w, h)

	var stack []int
	for i, v := range candidates {
		if v > high {
			edges.Pix[(i/w)*edges.Stride+i%w] = 255
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				off := ny*edges.Stride + nx
				if edges.Pix[off] == 0 && candidates[j] > low {
					edges.Pix[off] = 255
					stack = append(stack, j)
				}
			}
		}
	}

	return edges
}
