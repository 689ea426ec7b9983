package img2gba

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	sheetPadding  = 8
	captionHeight = 24
	captionSize   = 14
)

var (
	sheetBackground = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	captionColor    = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

var captionFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(goregular.TTF)
})

// Panel is one captioned image of a comparison sheet.
type Panel struct {
	Label string
	Image image.Image
}

// ComparisonSheet lays the panels out left to right on a dark background
// with each label drawn beneath its image.
func ComparisonSheet(panels ...Panel) (*image.RGBA, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("comparison sheet without panels: %w", ErrInvalidArgument)
	}
	ttf, err := captionFont()
	if err != nil {
		return nil, fmt.Errorf("caption font: %w", err)
	}

	width, tallest := sheetPadding, 0
	for _, p := range panels {
		b := p.Image.Bounds()
		width += b.Dx() + sheetPadding
		tallest = max(tallest, b.Dy())
	}
	height := sheetPadding + tallest + captionHeight + sheetPadding

	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(sheetBackground), image.Point{}, draw.Src)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(captionSize)
	ctx.SetClip(sheet.Bounds())
	ctx.SetDst(sheet)
	ctx.SetSrc(image.NewUniform(captionColor))
	ctx.SetHinting(font.HintingFull)

	baseline := sheetPadding + tallest + captionHeight - (captionHeight-captionSize)/2
	x := sheetPadding
	for _, p := range panels {
		b := p.Image.Bounds()
		dr := image.Rect(x, sheetPadding, x+b.Dx(), sheetPadding+b.Dy())
		draw.Draw(sheet, dr, p.Image, b.Min, draw.Src)

		if p.Label != "" {
			if _, err := ctx.DrawString(p.Label, freetype.Pt(x, baseline)); err != nil {
				return nil, fmt.Errorf("caption %q: %w", p.Label, err)
			}
		}
		x += b.Dx() + sheetPadding
	}
	return sheet, nil
}
