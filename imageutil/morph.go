package imageutil

import (
	"fmt"

	"github.com/disintegration/gift"
)

// Dilate grows the bright regions of mask with a 3x3 square structuring
// element, repeated iterations times.
func Dilate(mask *GrayImage, iterations int) (*GrayImage, error) {
	if iterations < 0 {
		return nil, fmt.Errorf("dilate %d iterations: %w", iterations, ErrInvalidDimensions)
	}
	if iterations == 0 {
		clone := NewGrayImage(mask.Width(), mask.Height())
		copy(clone.Pix, mask.Pix)
		return clone, nil
	}

	filters := make([]gift.Filter, iterations)
	for i := range filters {
		filters[i] = gift.Maximum(3, false)
	}
	g := gift.New(filters...)

	dst := NewGrayImage(mask.Width(), mask.Height())
	g.Draw(dst.Gray, mask.Gray)
	return dst, nil
}

// DarkenEdges subtracts half of the mask intensity from every channel of
// img, saturating at 0. The mask must match img in size.
func DarkenEdges(img *RGBAImage, mask *GrayImage) (*RGBAImage, error) {
	if img.Width() != mask.Width() || img.Height() != mask.Height() {
		return nil, fmt.Errorf("darken %dx%d with %dx%d mask: %w",
			img.Width(), img.Height(), mask.Width(), mask.Height(), ErrInvalidDimensions)
	}
	dst := img.Clone()
	for y := 0; y < dst.Height(); y++ {
		row := dst.Row(y)
		for x := 0; x < dst.Width(); x++ {
			half := mask.GetGray(x, y) / 2
			if half == 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				if v := row[x*4+c]; v > half {
					row[x*4+c] = v - half
				} else {
					row[x*4+c] = 0
				}
			}
		}
	}
	return dst, nil
}
