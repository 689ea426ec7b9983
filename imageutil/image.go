// Package imageutil provides the pure Go image primitives the retro
// filter is built on: buffer types, decode and encode, colour
// conversion, resizing, edge detection, morphology and blurring.
package imageutil

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// ToColor converts RGB to color.RGBA for use with standard library.
func (rgb RGB) ToColor() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// RGBFromColor converts a color.Color to RGB.
func RGBFromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// RGBAImage is the three channel pixel buffer every stage consumes and
// produces. Alpha is always opaque.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates an opaque black image with the specified dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	img := &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// RGBAImageFromImage converts any image.Image to an RGBAImage whose
// origin is (0, 0). Translucent pixels are flattened onto black.
func RGBAImageFromImage(img image.Image) *RGBAImage {
	bounds := img.Bounds()
	rgba := &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy())),
	}
	draw.Draw(rgba.RGBA, rgba.Bounds(), img, bounds.Min, draw.Src)
	for i := 3; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i] = 255
	}
	return rgba
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// GetRGB returns the RGB value at (x, y).
func (img *RGBAImage) GetRGB(x, y int) RGB {
	i := img.PixOffset(x, y)
	return RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
}

// SetRGB sets the RGB value at (x, y).
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	i := img.PixOffset(x, y)
	img.Pix[i] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = 255
}

// Clone creates a deep copy of the image.
func (img *RGBAImage) Clone() *RGBAImage {
	clone := &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, img.Width(), img.Height())),
	}
	copy(clone.Pix, img.Pix)
	return clone
}

// Row returns the packed RGBA bytes of row y.
func (img *RGBAImage) Row(y int) []uint8 {
	start := y * img.Stride
	return img.Pix[start : start+img.Width()*4]
}

// GrayImage wraps image.Gray for single-channel images (e.g., edge maps).
type GrayImage struct {
	*image.Gray
}

// NewGrayImage creates a new GrayImage with the specified dimensions.
func NewGrayImage(width, height int) *GrayImage {
	return &GrayImage{
		Gray: image.NewGray(image.Rect(0, 0, width, height)),
	}
}

// Width returns the image width.
func (img *GrayImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *GrayImage) Height() int {
	return img.Bounds().Dy()
}

// GetGray returns the grayscale value at (x, y).
func (img *GrayImage) GetGray(x, y int) uint8 {
	return img.Pix[y*img.Stride+x]
}

// SetGrayValue sets the grayscale value at (x, y).
func (img *GrayImage) SetGrayValue(x, y int, v uint8) {
	img.Pix[y*img.Stride+x] = v
}

// CountAbove returns the number of pixels brighter than threshold.
func (img *GrayImage) CountAbove(threshold uint8) int {
	n := 0
	for y := 0; y < img.Height(); y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+img.Width()] {
			if v > threshold {
				n++
			}
		}
	}
	return n
}

// CountColors returns the number of distinct colours in img.
func CountColors(img *RGBAImage) int {
	seen := make(map[RGB]struct{})
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			seen[img.GetRGB(x, y)] = struct{}{}
		}
	}
	return len(seen)
}

// ExactPaletted returns img as a paletted image whose palette holds
// exactly its colours in first-seen order. It reports false when img has
// more than 256 colours.
func ExactPaletted(img *RGBAImage) (*image.Paletted, bool) {
	index := make(map[RGB]uint8)
	var pal color.Palette
	dst := image.NewPaletted(image.Rect(0, 0, img.Width(), img.Height()), nil)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := img.GetRGB(x, y)
			i, ok := index[c]
			if !ok {
				if len(pal) == 256 {
					return nil, false
				}
				i = uint8(len(pal))
				index[c] = i
				pal = append(pal, c.ToColor())
			}
			dst.SetColorIndex(x, y, i)
		}
	}
	dst.Palette = pal
	return dst, true
}
