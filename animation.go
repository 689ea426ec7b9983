package img2gba

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"

	"golang.org/x/image/draw"

	"github.com/wbrown/img2gba/imageutil"
)

// ApplyGIF filters every frame of an animation. Frames are composited
// onto the logical screen first, honouring their disposal methods, so
// each filtered frame is a complete picture; the output frames are full
// size with the original delays and loop count.
func (f *Filter) ApplyGIF(src *gif.GIF) (*gif.GIF, error) {
	if src == nil || len(src.Image) == 0 {
		return nil, fmt.Errorf("animation has no frames: %w", ErrInvalidArgument)
	}

	bounds := image.Rect(0, 0, src.Config.Width, src.Config.Height)
	if bounds.Empty() {
		for _, frame := range src.Image {
			bounds = bounds.Union(frame.Bounds())
		}
	}
	canvas := image.NewRGBA(bounds)

	out := &gif.GIF{
		LoopCount: src.LoopCount,
		Config: image.Config{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		},
	}
	for i, frame := range src.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(src.Disposal) {
			disposal = src.Disposal[i]
		}
		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(bounds)
			copy(previous.Pix, canvas.Pix)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		res, err := f.Process(imageutil.RGBAImageFromImage(canvas))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		f.logger.Debug("frame done", "frame", i, "of", len(src.Image))

		delay := 0
		if i < len(src.Delay) {
			delay = src.Delay[i]
		}
		out.Image = append(out.Image, toPaletted(res.Image, res.Palette))
		out.Delay = append(out.Delay, delay)
		out.Disposal = append(out.Disposal, gif.DisposalNone)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return out, nil
}

// toPaletted converts img to a paletted image. When img has at most 256
// colours they are kept exactly; otherwise every pixel is mapped to the
// nearest colour of fallback.
func toPaletted(img *imageutil.RGBAImage, fallback []imageutil.RGB) *image.Paletted {
	if dst, ok := imageutil.ExactPaletted(img); ok {
		return dst
	}

	pal := make(color.Palette, len(fallback))
	for i, c := range fallback {
		pal[i] = c.ToColor()
	}
	tree := newPaletteTree(fallback)
	dst := image.NewPaletted(img.Bounds(), pal)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			dst.SetColorIndex(x, y, uint8(tree.nearest(img.GetRGB(x, y))))
		}
	}
	return dst
}
