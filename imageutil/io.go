package imageutil

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

func openImage(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}

// DecodeImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP stream.
func DecodeImage(r io.Reader) (*RGBAImage, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return RGBAImageFromImage(img), nil
}

// LoadImage loads an image from the specified path.
// Missing files report ErrNotFound, undecodable ones ErrDecode.
func LoadImage(path string) (*RGBAImage, error) {
	f, err := openImage(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadGIF loads every frame of a GIF file.
func LoadGIF(path string) (*gif.GIF, error) {
	f, err := openImage(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrDecode, err)
	}
	return g, nil
}

// IsGIF reports whether path names a GIF file by extension.
func IsGIF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}

// SaveImage saves an image to the specified path.
// Format is determined by file extension (png, jpg/jpeg, gif). GIF output
// keeps the exact colours of images with at most 256 of them.
func SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".gif":
		err = encodeGIF(f, img)
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

func encodeGIF(w io.Writer, img image.Image) error {
	if p, ok := ExactPaletted(RGBAImageFromImage(img)); ok {
		return gif.Encode(w, p, nil)
	}
	// Too many colours for one frame: nearest Plan9 colour, no dithering.
	return gif.Encode(w, img, &gif.Options{NumColors: 256, Drawer: draw.Src})
}

// SaveGIF writes an animated GIF.
func SaveGIF(g *gif.GIF, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	err = gif.EncodeAll(f, g)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
