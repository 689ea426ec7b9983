// Command gbavideo runs every frame of a video through the retro filter
// and writes the result as a new video. It needs OpenCV for decoding and
// encoding.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/wbrown/img2gba"
	"github.com/wbrown/img2gba/imageutil"
	"gocv.io/x/gocv"
)

func main() {
	inputFile := flag.String("input", "",
		"Path to the input video (required)")
	outputFile := flag.String("output", "",
		"Path to the output video (required)")
	codec := flag.String("codec", "mp4v",
		"FourCC of the output codec")
	fps := flag.Float64("fps", 0,
		"Output frame rate, 0 to keep the input rate")
	targetWidth := flag.Int("width", 240,
		"Width of the low resolution working image")
	colors := flag.Int("colors", 16,
		"Number of palette colors")
	dither := flag.Int("dither", 18,
		"Ordered dither strength, 0 to disable")
	edges := flag.Bool("edges", true,
		"Darken detected edges before quantizing")
	seed := flag.Int64("seed", 1,
		"Seed for palette clustering")
	maxFrames := flag.Int("frames", 0,
		"Stop after this many frames, 0 for all")
	verbose := flag.Bool("v", false,
		"Log every pipeline stage")
	flag.Parse()

	if *inputFile == "" || *outputFile == "" {
		fmt.Println("Please provide the video using the -input and -output flags")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	filter := img2gba.NewFilter(
		img2gba.WithTargetWidth(*targetWidth),
		img2gba.WithPaletteColors(*colors),
		img2gba.WithDitherStrength(*dither),
		img2gba.WithEdgeHint(*edges),
		img2gba.WithSeed(*seed),
		img2gba.WithLogger(logger),
	)
	if err := filter.Validate(); err != nil {
		fmt.Printf("Invalid options: %v\n", err)
		os.Exit(2)
	}

	start := time.Now()
	n, err := run(filter, logger, *inputFile, *outputFile, *codec, *fps, *maxFrames)
	if err != nil {
		logger.Error("video failed", "input", *inputFile, "frames", n, "err", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d frames to %s in %v\n", n, *outputFile, time.Since(start))
}

func run(filter *img2gba.Filter, logger *slog.Logger, input, output, codec string, fps float64, maxFrames int) (int, error) {
	capture, err := gocv.VideoCaptureFile(input)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", input, err)
	}
	defer capture.Close()

	if fps <= 0 {
		fps = capture.Get(gocv.VideoCaptureFPS)
	}
	if fps <= 0 {
		fps = 15
	}

	frame := gocv.NewMat()
	defer frame.Close()

	var writer *gocv.VideoWriter
	defer func() {
		if writer != nil {
			writer.Close()
		}
	}()

	n := 0
	for maxFrames <= 0 || n < maxFrames {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}

		img, err := matToRGBA(frame)
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		filtered, err := filter.Apply(img)
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}

		if writer == nil {
			writer, err = gocv.VideoWriterFile(output, codec, fps,
				filtered.Width(), filtered.Height(), true)
			if err != nil {
				return n, fmt.Errorf("create %s: %w", output, err)
			}
		}

		out, err := gocv.ImageToMatRGB(filtered)
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		err = writer.Write(out)
		out.Close()
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}

		n++
		logger.Debug("frame written", "frame", n)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: no frames decoded", input)
	}
	return n, nil
}

// matToRGBA converts a BGR frame to an opaque RGBA image.
func matToRGBA(mat gocv.Mat) (*imageutil.RGBAImage, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	return imageutil.RGBAImageFromImage(img), nil
}
