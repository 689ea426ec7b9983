package img2gba

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/wbrown/img2gba/imageutil"
)

// ClusterParams controls the k-means search behind Quantize.
type ClusterParams struct {
	// Attempts is the number of independently seeded runs; the most
	// compact one wins.
	Attempts int
	// MaxIterations bounds the Lloyd iterations of each run.
	MaxIterations int
	// Epsilon stops a run once the summed squared centroid movement of
	// an iteration is at most this value.
	Epsilon float64
	// Workers is the number of goroutines used for the assignment step.
	// Results are reproducible for a fixed worker count.
	Workers int
}

// DefaultClusterParams returns 3 attempts of up to 30 iterations with an
// epsilon of 1.0, one worker per CPU.
func DefaultClusterParams() ClusterParams {
	return ClusterParams{
		Attempts:      3,
		MaxIterations: 30,
		Epsilon:       1.0,
		Workers:       defaultWorkers(),
	}
}

func (p ClusterParams) validate() error {
	switch {
	case p.Attempts < 1:
		return fmt.Errorf("attempts %d: %w", p.Attempts, ErrInvalidArgument)
	case p.MaxIterations < 1:
		return fmt.Errorf("max iterations %d: %w", p.MaxIterations, ErrInvalidArgument)
	case p.Epsilon < 0 || math.IsNaN(p.Epsilon):
		return fmt.Errorf("epsilon %v: %w", p.Epsilon, ErrInvalidArgument)
	}
	return nil
}

// LabelMap assigns every pixel of a Width x Height image a palette index.
type LabelMap struct {
	Width, Height int
	Index         []int
}

// At returns the palette index of pixel (x, y).
func (m *LabelMap) At(x, y int) int {
	return m.Index[y*m.Width+x]
}

// Quantized is the outcome of Quantize.
type Quantized struct {
	// Image has every pixel replaced by its palette colour.
	Image *imageutil.RGBAImage
	// Palette holds the k centroids rounded to 8-bit channels.
	Palette []imageutil.RGB
	Labels  *LabelMap
	// Compactness is the summed squared distance of every pixel to its
	// unrounded centroid in the winning attempt.
	Compactness float64
	// Iterations is the number of Lloyd iterations the winning attempt ran.
	Iterations int
}

// DistinctColors returns the number of distinct colours in img.
func DistinctColors(img *imageutil.RGBAImage) int {
	return imageutil.CountColors(img)
}

// Quantize reduces img to at most k colours with k-means clustering in
// RGB space: k-means++ seeding followed by Lloyd iterations, repeated
// params.Attempts times. rng is the only source of randomness, so a
// seeded rng gives reproducible palettes; a nil rng is seeded from the
// clock.
//
// k must be in [1, DistinctColors(img)], otherwise ErrInvalidArgument is
// returned.
func Quantize(img *imageutil.RGBAImage, k int, params ClusterParams, rng *rand.Rand) (*Quantized, error) {
	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return nil, fmt.Errorf("quantize empty image: %w", ErrInvalidArgument)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("palette size %d: %w", k, ErrInvalidArgument)
	}
	if distinct := DistinctColors(img); k > distinct {
		return nil, fmt.Errorf("palette size %d exceeds %d distinct colours: %w",
			k, distinct, ErrInvalidArgument)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	points := imagePoints(img)
	var best *clustering
	for a := 0; a < params.Attempts; a++ {
		c := newClustering(points, k, params.Workers)
		c.seed(rng)
		c.run(params.MaxIterations, params.Epsilon)
		if best == nil || c.compactness < best.compactness {
			best = c
		}
	}

	return best.result(img.Width(), img.Height()), nil
}

// point is a colour in float RGB space.
type point [3]float64

func sqDist(a, b point) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}

func imagePoints(img *imageutil.RGBAImage) []point {
	w := img.Width()
	points := make([]point, 0, w*img.Height())
	for y := 0; y < img.Height(); y++ {
		row := img.Row(y)
		for x := 0; x < w; x++ {
			points = append(points, point{float64(row[x*4]), float64(row[x*4+1]), float64(row[x*4+2])})
		}
	}
	return points
}

// clustering is one k-means attempt.
type clustering struct {
	points      []point
	k           int
	workers     int
	centers     []point
	labels      []int
	compactness float64
	iterations  int
}

func newClustering(points []point, k, workers int) *clustering {
	return &clustering{
		points:  points,
		k:       k,
		workers: max(1, min(workers, len(points))),
		labels:  make([]int, len(points)),
	}
}

// seed picks the initial centres with k-means++: the first uniformly,
// each following one with probability proportional to its squared
// distance from the nearest centre chosen so far.
func (c *clustering) seed(rng *rand.Rand) {
	n := len(c.points)
	c.centers = make([]point, 0, c.k)
	first := c.points[rng.Intn(n)]
	c.centers = append(c.centers, first)

	nearest := make([]float64, n)
	for i, p := range c.points {
		nearest[i] = sqDist(p, first)
	}

	for len(c.centers) < c.k {
		var total float64
		for _, d := range nearest {
			total += d
		}

		idx := -1
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range nearest {
				if d == 0 {
					continue
				}
				if r -= d; r < 0 {
					idx = i
					break
				}
			}
			if idx < 0 {
				// r survived the walk through rounding; take the last
				// candidate.
				for i := n - 1; i >= 0; i-- {
					if nearest[i] > 0 {
						idx = i
						break
					}
				}
			}
		} else {
			idx = rng.Intn(n)
		}

		center := c.points[idx]
		c.centers = append(c.centers, center)
		for i, p := range c.points {
			if d := sqDist(p, center); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
}

// partial is one worker's share of an assignment pass.
type partial struct {
	sums    []point
	counts  []int
	inertia float64
}

// assign labels every point with its nearest centre, lowest index
// winning ties, and returns the per-worker sums in worker order.
func (c *clustering) assign() []partial {
	parts := make([]partial, c.workers)
	splitRows(len(c.points), c.workers, func(worker, start, end int) {
		p := partial{
			sums:   make([]point, c.k),
			counts: make([]int, c.k),
		}
		for i := start; i < end; i++ {
			pt := c.points[i]
			best, bestDist := 0, math.Inf(1)
			for j, center := range c.centers {
				if d := sqDist(pt, center); d < bestDist {
					best, bestDist = j, d
				}
			}
			c.labels[i] = best
			p.counts[best]++
			p.sums[best][0] += pt[0]
			p.sums[best][1] += pt[1]
			p.sums[best][2] += pt[2]
			p.inertia += bestDist
		}
		parts[worker] = p
	})
	return parts
}

// run performs Lloyd iterations until the centres move by at most
// epsilon in total or maxIterations is reached, then labels the points
// against the final centres.
func (c *clustering) run(maxIterations int, epsilon float64) {
	for iter := 0; iter < maxIterations; iter++ {
		sums := make([]point, c.k)
		counts := make([]int, c.k)
		for _, p := range c.assign() {
			if p.counts == nil {
				continue
			}
			for j := range sums {
				counts[j] += p.counts[j]
				sums[j][0] += p.sums[j][0]
				sums[j][1] += p.sums[j][1]
				sums[j][2] += p.sums[j][2]
			}
		}

		next := make([]point, c.k)
		live := make([]point, 0, c.k)
		var empty []int
		for j := range next {
			if counts[j] == 0 {
				empty = append(empty, j)
				continue
			}
			n := float64(counts[j])
			next[j] = point{sums[j][0] / n, sums[j][1] / n, sums[j][2] / n}
			live = append(live, next[j])
		}
		for _, j := range empty {
			next[j] = c.farthest(live)
			live = append(live, next[j])
		}

		var shift float64
		for j := range next {
			shift += sqDist(next[j], c.centers[j])
		}
		c.centers = next
		c.iterations = iter + 1
		if shift <= epsilon {
			break
		}
	}

	c.compactness = 0
	for _, p := range c.assign() {
		c.compactness += p.inertia
	}
}

// farthest returns the point whose nearest centre is the furthest away.
func (c *clustering) farthest(centers []point) point {
	if len(centers) == 0 {
		return c.points[0]
	}
	best, bestDist := 0, -1.0
	for i, p := range c.points {
		nearest := math.Inf(1)
		for _, center := range centers {
			nearest = min(nearest, sqDist(p, center))
		}
		if nearest > bestDist {
			best, bestDist = i, nearest
		}
	}
	return c.points[best]
}

func (c *clustering) result(width, height int) *Quantized {
	palette := make([]imageutil.RGB, c.k)
	for j, center := range c.centers {
		palette[j] = imageutil.RGB{
			R: clamp8(int(math.Round(center[0]))),
			G: clamp8(int(math.Round(center[1]))),
			B: clamp8(int(math.Round(center[2]))),
		}
	}

	img := imageutil.NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		row := img.Row(y)
		for x := 0; x < width; x++ {
			col := palette[c.labels[y*width+x]]
			row[x*4], row[x*4+1], row[x*4+2] = col.R, col.G, col.B
		}
	}

	return &Quantized{
		Image:       img,
		Palette:     palette,
		Labels:      &LabelMap{Width: width, Height: height, Index: append([]int(nil), c.labels...)},
		Compactness: c.compactness,
		Iterations:  c.iterations,
	}
}
