package img2gba

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wbrown/img2gba/imageutil"
)

// Filter turns full colour images into low resolution, limited palette
// renditions reminiscent of a handheld console. A Filter only holds
// configuration, so one value can be shared by concurrent callers;
// every call works on its own buffers.
//
// The stages run in a fixed order: contrast, downscale, optional edge
// hint, optional ordered dither, palette quantization, nearest-neighbour
// upscale, sharpen.
type Filter struct {
	// Configuration options
	TargetWidth    int
	PaletteColors  int
	DitherStrength int
	EdgeHint       bool
	Seed           int64
	Cluster        ClusterParams

	ContrastGain  float64
	ContrastBias  float64
	EdgeLow       float64
	EdgeHigh      float64
	EdgeDilation  int
	SharpenAmount float64
	BlurSize      int

	logger *slog.Logger
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// NewFilter creates a new Filter with the given options.
// Default values: TargetWidth=240, PaletteColors=16, DitherStrength=18,
// EdgeHint=true, Seed=1, contrast gain 1.10 and bias 4, Canny thresholds
// 60/140 with one dilation, sharpen amount 0.15 over a 3x3 blur.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		TargetWidth:    240,
		PaletteColors:  16,
		DitherStrength: 18,
		EdgeHint:       true,
		Seed:           1,
		Cluster:        DefaultClusterParams(),

		ContrastGain:  1.10,
		ContrastBias:  4,
		EdgeLow:       60,
		EdgeHigh:      140,
		EdgeDilation:  1,
		SharpenAmount: 0.15,
		BlurSize:      3,

		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithTargetWidth sets the width of the low resolution working image.
func WithTargetWidth(width int) Option {
	return func(f *Filter) {
		f.TargetWidth = width
	}
}

// WithPaletteColors sets the number of palette colours.
func WithPaletteColors(k int) Option {
	return func(f *Filter) {
		f.PaletteColors = k
	}
}

// WithDitherStrength sets the ordered dither strength (0 disables it).
func WithDitherStrength(strength int) Option {
	return func(f *Filter) {
		f.DitherStrength = strength
	}
}

// WithEdgeHint toggles darkening of detected edges before dithering.
func WithEdgeHint(enabled bool) Option {
	return func(f *Filter) {
		f.EdgeHint = enabled
	}
}

// WithSeed sets the seed of the clustering random source.
func WithSeed(seed int64) Option {
	return func(f *Filter) {
		f.Seed = seed
	}
}

// WithClusterParams replaces the k-means settings.
func WithClusterParams(p ClusterParams) Option {
	return func(f *Filter) {
		f.Cluster = p
	}
}

// WithContrast sets the luma gain and bias of the contrast stage.
func WithContrast(gain, bias float64) Option {
	return func(f *Filter) {
		f.ContrastGain = gain
		f.ContrastBias = bias
	}
}

// WithEdgeThresholds sets the Canny hysteresis thresholds.
func WithEdgeThresholds(low, high float64) Option {
	return func(f *Filter) {
		f.EdgeLow = low
		f.EdgeHigh = high
	}
}

// WithSharpen sets the unsharp mask amount; 0 skips sharpening.
func WithSharpen(amount float64) Option {
	return func(f *Filter) {
		f.SharpenAmount = amount
	}
}

// WithLogger routes stage timings to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Validate checks the configuration.
func (f *Filter) Validate() error {
	switch {
	case f.TargetWidth <= 0:
		return fmt.Errorf("target width %d: %w", f.TargetWidth, ErrInvalidArgument)
	case f.PaletteColors <= 0:
		return fmt.Errorf("palette colors %d: %w", f.PaletteColors, ErrInvalidArgument)
	case f.DitherStrength < 0:
		return fmt.Errorf("dither strength %d: %w", f.DitherStrength, ErrInvalidArgument)
	case f.EdgeDilation < 0:
		return fmt.Errorf("edge dilation %d: %w", f.EdgeDilation, ErrInvalidArgument)
	case f.BlurSize < 1 || f.BlurSize%2 == 0:
		return fmt.Errorf("blur size %d: %w", f.BlurSize, ErrInvalidArgument)
	}
	return f.Cluster.validate()
}

// Result holds the output of Process.
type Result struct {
	// Image is the final rendition at the input size.
	Image *imageutil.RGBAImage
	// Small is the quantized image at the working resolution.
	Small *imageutil.RGBAImage
	// Palette is the colour set Small is drawn from.
	Palette []imageutil.RGB
	// Edges is the dilated edge mask, nil when the edge hint is off.
	Edges *imageutil.GrayImage
}

// Apply runs the filter and returns the final image.
func (f *Filter) Apply(img *imageutil.RGBAImage) (*imageutil.RGBAImage, error) {
	res, err := f.Process(img)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Process runs every stage on img and returns the final image along with
// the intermediate palette data. img is not modified.
func (f *Filter) Process(img *imageutil.RGBAImage) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return nil, fmt.Errorf("empty input image: %w", ErrInvalidArgument)
	}

	width, height := img.Width(), img.Height()
	res := &Result{}
	start := time.Now()
	stage := func(name string, began time.Time, buf *imageutil.RGBAImage) {
		f.logger.Debug("stage done",
			"stage", name,
			"width", buf.Width(),
			"height", buf.Height(),
			"elapsed", time.Since(began))
	}

	t := time.Now()
	buf := imageutil.AdjustLuma(img, f.ContrastGain, f.ContrastBias)
	stage("contrast", t, buf)

	t = time.Now()
	small, err := imageutil.ResizeToWidth(buf, f.TargetWidth, imageutil.InterpolationArea)
	if err != nil {
		return nil, fmt.Errorf("downscale: %w", err)
	}
	stage("downscale", t, small)

	if f.EdgeHint {
		t = time.Now()
		small, res.Edges, err = f.edgeHint(small)
		if err != nil {
			return nil, fmt.Errorf("edge hint: %w", err)
		}
		stage("edge_hint", t, small)
	}

	if f.DitherStrength > 0 {
		t = time.Now()
		small = DitherWorkers(small, f.DitherStrength, f.Cluster.Workers)
		stage("dither", t, small)
	}

	t = time.Now()
	k := f.PaletteColors
	if distinct := DistinctColors(small); k > distinct {
		f.logger.Debug("palette larger than distinct colours",
			"palette_colors", k, "distinct", distinct)
		k = distinct
	}
	q, err := Quantize(small, k, f.Cluster, rand.New(rand.NewSource(f.Seed)))
	if err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}
	res.Small, res.Palette = q.Image, q.Palette
	f.logger.Debug("quantized",
		"k", k,
		"compactness", q.Compactness,
		"iterations", q.Iterations)
	stage("quantize", t, q.Image)

	t = time.Now()
	out, err := imageutil.Resize(q.Image, width, height, imageutil.InterpolationNearest)
	if err != nil {
		return nil, fmt.Errorf("upscale: %w", err)
	}
	stage("upscale", t, out)

	if f.SharpenAmount != 0 {
		t = time.Now()
		out, err = f.sharpen(out)
		if err != nil {
			return nil, fmt.Errorf("sharpen: %w", err)
		}
		stage("sharpen", t, out)
	}

	res.Image = out
	f.logger.Debug("filter done",
		"width", width,
		"height", height,
		"colors", k,
		"elapsed", time.Since(start))
	return res, nil
}

// edgeHint darkens the pixels of img that lie on dilated Canny edges
// by half the mask intensity.
func (f *Filter) edgeHint(img *imageutil.RGBAImage) (*imageutil.RGBAImage, *imageutil.GrayImage, error) {
	edges := imageutil.Canny(imageutil.ToGrayscale(img), f.EdgeLow, f.EdgeHigh)
	edges, err := imageutil.Dilate(edges, f.EdgeDilation)
	if err != nil {
		return nil, nil, err
	}
	out, err := imageutil.DarkenEdges(img, edges)
	if err != nil {
		return nil, nil, err
	}
	return out, edges, nil
}

// sharpen applies an unsharp mask: img*(1+a) - blur(img)*a.
func (f *Filter) sharpen(img *imageutil.RGBAImage) (*imageutil.RGBAImage, error) {
	blurred, err := imageutil.GaussianBlur(img, f.BlurSize)
	if err != nil {
		return nil, err
	}
	return imageutil.AddWeighted(img, 1+f.SharpenAmount, blurred, -f.SharpenAmount, 0)
}
