package img2gba

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/wbrown/img2gba/imageutil"
)

func testAnimation() *gif.GIF {
	pal := color.Palette{
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 0, 255, 255},
		color.RGBA{255, 255, 255, 255},
	}

	first := image.NewPaletted(image.Rect(0, 0, 40, 20), pal)
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			first.SetColorIndex(x, y, uint8(1+x/20))
		}
	}
	// The second frame only repaints the top left corner.
	second := image.NewPaletted(image.Rect(0, 0, 10, 10), pal)
	for i := range second.Pix {
		second.Pix[i] = 3
	}

	return &gif.GIF{
		Image:     []*image.Paletted{first, second},
		Delay:     []int{10, 25},
		Disposal:  []byte{gif.DisposalNone, gif.DisposalNone},
		LoopCount: 0,
		Config:    image.Config{Width: 40, Height: 20},
	}
}

func TestApplyGIF(t *testing.T) {
	t.Parallel()

	f := NewFilter(
		WithTargetWidth(20),
		WithPaletteColors(4),
		WithDitherStrength(0),
		WithEdgeHint(false),
		WithSharpen(0),
	)
	out, err := f.ApplyGIF(testAnimation())
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Image) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(out.Image))
	}
	if out.Delay[0] != 10 || out.Delay[1] != 25 {
		t.Errorf("delays not preserved: %v", out.Delay)
	}
	if out.Config.Width != 40 || out.Config.Height != 20 {
		t.Errorf("Expected 40x20 screen, got %dx%d", out.Config.Width, out.Config.Height)
	}
	for i, frame := range out.Image {
		if frame.Bounds() != image.Rect(0, 0, 40, 20) {
			t.Errorf("frame %d: bounds %v, want full screen", i, frame.Bounds())
		}
	}

	// The second frame keeps the first frame's right half and shows the
	// white corner on top of it.
	second := imageutil.RGBAImageFromImage(out.Image[1])
	if got := second.GetRGB(2, 2); got.R < 200 || got.G < 200 || got.B < 200 {
		t.Errorf("corner should be white, got %v", got)
	}
	if got := second.GetRGB(35, 10); got.B < 200 || got.R > 60 {
		t.Errorf("right half should stay blue, got %v", got)
	}
}

func TestApplyGIFDisposeBackground(t *testing.T) {
	t.Parallel()

	anim := testAnimation()
	anim.Disposal[0] = gif.DisposalBackground

	f := NewFilter(
		WithTargetWidth(20),
		WithPaletteColors(4),
		WithDitherStrength(0),
		WithEdgeHint(false),
		WithSharpen(0),
	)
	out, err := f.ApplyGIF(anim)
	if err != nil {
		t.Fatal(err)
	}

	// The first frame is cleared before the second is drawn, so its
	// right half is no longer blue.
	second := imageutil.RGBAImageFromImage(out.Image[1])
	if got := second.GetRGB(35, 10); got.B > 60 {
		t.Errorf("disposed area should be cleared, got %v", got)
	}
}

func TestApplyGIFEmpty(t *testing.T) {
	t.Parallel()

	if _, err := NewFilter().ApplyGIF(&gif.GIF{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewFilter().ApplyGIF(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestToPalettedFallback(t *testing.T) {
	t.Parallel()

	noise := imageutil.CreateNoiseImage(32, 32, 1)
	fallback := []imageutil.RGB{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}}
	p := toPaletted(noise, fallback)
	if len(p.Palette) != 2 {
		t.Fatalf("Expected fallback palette of 2, got %d", len(p.Palette))
	}
	for _, idx := range p.Pix {
		if int(idx) >= len(p.Palette) {
			t.Fatalf("index %d outside palette", idx)
		}
	}

	few := imageutil.CreateColorBarsImage(16, 4)
	p = toPaletted(few, fallback)
	if len(p.Palette) != imageutil.CountColors(few) {
		t.Errorf("Expected exact palette of %d, got %d", imageutil.CountColors(few), len(p.Palette))
	}
	back := imageutil.RGBAImageFromImage(p)
	if d := imageutil.CalculateMaxDiff(few, back); d != 0 {
		t.Errorf("exact palette changed pixels by %d", d)
	}
}
