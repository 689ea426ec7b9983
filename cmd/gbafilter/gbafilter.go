package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/wbrown/img2gba"
	"github.com/wbrown/img2gba/imageutil"
)

func main() {
	inputFile := flag.String("input", "",
		"Path to the input image file (required)")
	outputFile := flag.String("output", "",
		"Path to save the output (png, jpg or gif)")
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
	attempts := flag.Int("attempts", 3,
		"Number of k-means attempts")
	workers := flag.Int("workers", 0,
		"Worker goroutines, 0 for one per CPU")
	compareFile := flag.String("compare", "",
		"Also write a before/after comparison sheet to this path")
	verbose := flag.Bool("v", false,
		"Log every pipeline stage")
	flag.Parse()

	if *inputFile == "" || *outputFile == "" {
		fmt.Println("Please provide the image using the -input and -output flags")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cluster := img2gba.DefaultClusterParams()
	cluster.Attempts = *attempts
	if *workers > 0 {
		cluster.Workers = *workers
	}

	filter := img2gba.NewFilter(
		img2gba.WithTargetWidth(*targetWidth),
		img2gba.WithPaletteColors(*colors),
		img2gba.WithDitherStrength(*dither),
		img2gba.WithEdgeHint(*edges),
		img2gba.WithSeed(*seed),
		img2gba.WithClusterParams(cluster),
		img2gba.WithLogger(logger),
	)
	if err := filter.Validate(); err != nil {
		fmt.Printf("Invalid options: %v\n", err)
		os.Exit(2)
	}

	start := time.Now()
	var err error
	if imageutil.IsGIF(*inputFile) && imageutil.IsGIF(*outputFile) {
		err = filterAnimation(filter, *inputFile, *outputFile)
	} else {
		err = filterImage(filter, *inputFile, *outputFile, *compareFile)
	}
	if err != nil {
		logger.Error("filter failed", "input", *inputFile, "err", err)
		os.Exit(1)
	}

	fmt.Printf("Output written to %s\n", *outputFile)
	fmt.Printf("Computation time: %v\n", time.Since(start))
}

func filterImage(filter *img2gba.Filter, input, output, compare string) error {
	img, err := imageutil.LoadImage(input)
	if err != nil {
		return err
	}

	res, err := filter.Process(img)
	if err != nil {
		return err
	}
	if err := imageutil.SaveImage(res.Image, output); err != nil {
		return err
	}
	fmt.Printf("Input: %dx%d, working: %dx%d, palette: %d colors\n",
		img.Width(), img.Height(), res.Small.Width(), res.Small.Height(), len(res.Palette))

	if compare == "" {
		return nil
	}
	panels := []img2gba.Panel{
		{Label: "original", Image: img},
		{Label: fmt.Sprintf("%d colors", len(res.Palette)), Image: res.Image},
	}
	if res.Edges != nil {
		edges, err := imageutil.Resize(imageutil.GrayscaleToRGBA(res.Edges),
			img.Width(), img.Height(), imageutil.InterpolationNearest)
		if err != nil {
			return err
		}
		panels = append(panels, img2gba.Panel{Label: "edges", Image: edges})
	}
	sheet, err := img2gba.ComparisonSheet(panels...)
	if err != nil {
		return err
	}
	if err := imageutil.SaveImage(sheet, compare); err != nil {
		return err
	}
	fmt.Printf("Comparison written to %s\n", compare)
	return nil
}

func filterAnimation(filter *img2gba.Filter, input, output string) error {
	anim, err := imageutil.LoadGIF(input)
	if err != nil {
		return err
	}
	out, err := filter.ApplyGIF(anim)
	if err != nil {
		return err
	}
	fmt.Printf("Frames: %d, screen: %dx%d\n", len(out.Image), out.Config.Width, out.Config.Height)
	return imageutil.SaveGIF(out, output)
}
