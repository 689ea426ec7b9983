package imageutil

import (
	"fmt"
	"image/color"
	"math"
)

// ColorSpace names the interpretation of the three channels of an
// RGBAImage.
type ColorSpace int

const (
	// SpaceRGB stores R, G, B in channels 0, 1, 2.
	SpaceRGB ColorSpace = iota
	// SpaceYCbCr stores JFIF Y, Cb, Cr in channels 0, 1, 2. This is the
	// same transform OpenCV uses for COLOR_BGR2YCrCb on 8-bit data.
	SpaceYCbCr
)

func (s ColorSpace) String() string {
	switch s {
	case SpaceRGB:
		return "rgb"
	case SpaceYCbCr:
		return "ycbcr"
	}
	return fmt.Sprintf("ColorSpace(%d)", int(s))
}

// ConvertColor returns a copy of img with its channels transformed from
// one colour space to another.
func ConvertColor(img *RGBAImage, from, to ColorSpace) (*RGBAImage, error) {
	switch {
	case from == to:
		return img.Clone(), nil
	case from == SpaceRGB && to == SpaceYCbCr:
		return mapPixels(img, color.RGBToYCbCr), nil
	case from == SpaceYCbCr && to == SpaceRGB:
		return mapPixels(img, color.YCbCrToRGB), nil
	}
	return nil, fmt.Errorf("convert %v to %v: unsupported", from, to)
}

// mapPixels returns a copy of img with conv applied to every pixel.
func mapPixels(img *RGBAImage, conv func(a, b, c uint8) (uint8, uint8, uint8)) *RGBAImage {
	dst := img.Clone()
	for y := 0; y < dst.Height(); y++ {
		row := dst.Row(y)
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2] = conv(row[i], row[i+1], row[i+2])
		}
	}
	return dst
}

// AdjustLuma multiplies the luma of every pixel by gain, adds bias and
// recombines it with the untouched chroma. The scaled luma is saturated
// as |gain*Y + bias| like OpenCV's convertScaleAbs.
func AdjustLuma(img *RGBAImage, gain, bias float64) *RGBAImage {
	ycc := mapPixels(img, color.RGBToYCbCr)

	var lut [256]uint8
	for v := range lut {
		lut[v] = clampUint8(math.Abs(gain*float64(v) + bias))
	}
	for y := 0; y < ycc.Height(); y++ {
		row := ycc.Row(y)
		for i := 0; i < len(row); i += 4 {
			row[i] = lut[row[i]]
		}
	}

	return mapPixels(ycc, color.YCbCrToRGB)
}

// ToGrayscale converts an RGBA image to grayscale with the BT.601 weights
// in the 14-bit fixed point form OpenCV uses for COLOR_BGR2GRAY.
func ToGrayscale(img *RGBAImage) *GrayImage {
	width, height := img.Width(), img.Height()
	gray := NewGrayImage(width, height)

	for y := 0; y < height; y++ {
		row := img.Row(y)
		out := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x := range out {
			r, g, b := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
			out[x] = uint8((r*4899 + g*9617 + b*1868 + 8192) >> 14)
		}
	}

	return gray
}

// GrayscaleToRGBA converts a grayscale image back to RGBA.
func GrayscaleToRGBA(gray *GrayImage) *RGBAImage {
	width, height := gray.Width(), gray.Height()
	rgba := NewRGBAImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := gray.GetGray(x, y)
			rgba.SetRGB(x, y, RGB{R: v, G: v, B: v})
		}
	}

	return rgba
}
