package imageutil

import (
	"fmt"
	"math"

	"golang.org/x/image/draw"
)

// Interpolation specifies the interpolation method for resizing.
type Interpolation int

const (
	// InterpolationArea averages every source pixel that falls under a
	// destination pixel. This is the equivalent of OpenCV's INTER_AREA
	// when shrinking.
	InterpolationArea Interpolation = iota

	// InterpolationNearest copies the closest source pixel, keeping hard
	// pixel edges when enlarging.
	InterpolationNearest
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationArea:
		return "area"
	case InterpolationNearest:
		return "nearest"
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// areaKernel is a box filter. draw.Kernel widens the support by the
// scale factor when downsampling, so each output pixel becomes the
// mean of its source footprint.
var areaKernel = &draw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		return 1
	},
}

func (i Interpolation) scaler() (draw.Scaler, error) {
	switch i {
	case InterpolationArea:
		return areaKernel, nil
	case InterpolationNearest:
		return draw.NearestNeighbor, nil
	}
	return nil, fmt.Errorf("resize: unknown interpolation %v", i)
}

// Resize resizes an RGBA image to the specified dimensions using the
// given interpolation method.
func Resize(img *RGBAImage, width, height int, interp Interpolation) (*RGBAImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("resize to %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	scaler, err := interp.scaler()
	if err != nil {
		return nil, err
	}

	dst := NewRGBAImage(width, height)
	scaler.Scale(dst.RGBA, dst.Bounds(), img.RGBA, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// ScaledHeight returns the height that keeps the aspect ratio of a
// width x height image resized to targetWidth, never less than 1.
func ScaledHeight(width, height, targetWidth int) int {
	h := int(math.Round(float64(height) * float64(targetWidth) / float64(width)))
	if h < 1 {
		return 1
	}
	return h
}

// ResizeToWidth resizes an image to the specified width while maintaining
// aspect ratio.
func ResizeToWidth(img *RGBAImage, width int, interp Interpolation) (*RGBAImage, error) {
	if width <= 0 {
		return nil, fmt.Errorf("resize to width %d: %w", width, ErrInvalidDimensions)
	}
	return Resize(img, width, ScaledHeight(img.Width(), img.Height(), width), interp)
}
