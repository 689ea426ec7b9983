// Package gocv_compare contains tests that compare the pure Go filter
// stages against gocv (OpenCV). These tests require OpenCV to be installed.
//
// Run with: cd imageutil/gocv_compare && go test -v
package gocv_compare

import (
	"image"
	"math/rand"
	"testing"

	"github.com/wbrown/img2gba"
	"github.com/wbrown/img2gba/imageutil"
	"gocv.io/x/gocv"
)

// gocvToRGBA converts a gocv.Mat (BGR) to RGBAImage (RGB).
func gocvToRGBA(mat gocv.Mat) *imageutil.RGBAImage {
	height, width := mat.Rows(), mat.Cols()
	img := imageutil.NewRGBAImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// gocv uses BGR format
			vec := mat.GetVecbAt(y, x)
			img.SetRGB(x, y, imageutil.RGB{R: vec[2], G: vec[1], B: vec[0]})
		}
	}
	return img
}

// gocvGrayToGray converts a gocv.Mat (grayscale) to GrayImage.
func gocvGrayToGray(mat gocv.Mat) *imageutil.GrayImage {
	height, width := mat.Rows(), mat.Cols()
	img := imageutil.NewGrayImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGrayValue(x, y, mat.GetUCharAt(y, x))
		}
	}
	return img
}

// rgbaToGocv converts an RGBAImage to gocv.Mat (BGR).
func rgbaToGocv(img *imageutil.RGBAImage) gocv.Mat {
	mat := gocv.NewMatWithSize(img.Height(), img.Width(), gocv.MatTypeCV8UC3)

	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := img.GetRGB(x, y)
			// gocv uses BGR format
			mat.SetUCharAt(y, x*3, c.B)
			mat.SetUCharAt(y, x*3+1, c.G)
			mat.SetUCharAt(y, x*3+2, c.R)
		}
	}
	return mat
}

// grayToGocv converts a GrayImage to gocv.Mat (grayscale).
func grayToGocv(img *imageutil.GrayImage) gocv.Mat {
	mat := gocv.NewMatWithSize(img.Height(), img.Width(), gocv.MatTypeCV8U)

	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			mat.SetUCharAt(y, x, img.GetGray(x, y))
		}
	}
	return mat
}

// samplesToGocv lays the pixels out as an N x 3 float matrix for KMeans.
func samplesToGocv(img *imageutil.RGBAImage) gocv.Mat {
	n := img.Width() * img.Height()
	mat := gocv.NewMatWithSize(n, 3, gocv.MatTypeCV32F)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := img.GetRGB(x, y)
			row := y*img.Width() + x
			mat.SetFloatAt(row, 0, float32(c.B))
			mat.SetFloatAt(row, 1, float32(c.G))
			mat.SetFloatAt(row, 2, float32(c.R))
		}
	}
	return mat
}

func TestCompareGrayscaleConversion(t *testing.T) {
	img := imageutil.CreateColorBarsImage(256, 256)
	mat := rgbaToGocv(img)
	defer mat.Close()

	grayMat := gocv.NewMat()
	defer grayMat.Close()
	gocv.CvtColor(mat, &grayMat, gocv.ColorBGRToGray)
	gocvGray := gocvGrayToGray(grayMat)

	pureGoGray := imageutil.ToGrayscale(img)

	mse := imageutil.CalculateMSEGray(gocvGray, pureGoGray)
	t.Logf("Grayscale conversion MSE: %f", mse)

	if mse > 0.5 {
		t.Errorf("Grayscale MSE too high: %f (threshold: 0.5)", mse)
	}
}

func TestCompareContrast(t *testing.T) {
	img := imageutil.CreateSkyImage(200, 150)
	mat := rgbaToGocv(img)
	defer mat.Close()

	// gocv: scale the Y plane of YCrCb and convert back
	ycc := gocv.NewMat()
	defer ycc.Close()
	gocv.CvtColor(mat, &ycc, gocv.ColorBGRToYCrCb)
	planes := gocv.Split(ycc)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()
	luma := gocv.NewMat()
	defer luma.Close()
	gocv.ConvertScaleAbs(planes[0], &luma, 1.10, 4)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{luma, planes[1], planes[2]}, &merged)
	adjusted := gocv.NewMat()
	defer adjusted.Close()
	gocv.CvtColor(merged, &adjusted, gocv.ColorYCrCbToBGR)
	gocvAdjusted := gocvToRGBA(adjusted)

	pureGoAdjusted := imageutil.AdjustLuma(img, 1.10, 4)

	mse := imageutil.CalculateMSE(gocvAdjusted, pureGoAdjusted)
	maxDiff := imageutil.CalculateMaxDiff(gocvAdjusted, pureGoAdjusted)
	t.Logf("Contrast MSE: %f, Max diff: %d", mse, maxDiff)

	if mse > 4.0 {
		t.Errorf("Contrast MSE too high: %f (threshold: 4.0)", mse)
	}
}

func TestCompareResize(t *testing.T) {
	testCases := []struct {
		name      string
		srcWidth  int
		srcHeight int
		dstWidth  int
		dstHeight int
		interp    imageutil.Interpolation
		gocvFlag  gocv.InterpolationFlags
		threshold float64
	}{
		{"Area 2x", 256, 256, 128, 128, imageutil.InterpolationArea, gocv.InterpolationArea, 2.0},
		{"Area 4x", 256, 256, 64, 64, imageutil.InterpolationArea, gocv.InterpolationArea, 2.0},
		{"Area arbitrary", 320, 200, 240, 150, imageutil.InterpolationArea, gocv.InterpolationArea, 10.0},
		{"Nearest 4x up", 60, 40, 240, 160, imageutil.InterpolationNearest, gocv.InterpolationNearestNeighbor, 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := imageutil.CreateSkyImage(tc.srcWidth, tc.srcHeight)
			mat := rgbaToGocv(img)
			defer mat.Close()

			resizedMat := gocv.NewMat()
			defer resizedMat.Close()
			gocv.Resize(mat, &resizedMat, image.Point{X: tc.dstWidth, Y: tc.dstHeight},
				0, 0, tc.gocvFlag)
			gocvResized := gocvToRGBA(resizedMat)

			pureGoResized, err := imageutil.Resize(img, tc.dstWidth, tc.dstHeight, tc.interp)
			if err != nil {
				t.Fatal(err)
			}

			mse := imageutil.CalculateMSE(gocvResized, pureGoResized)
			t.Logf("%s resize MSE: %f", tc.name, mse)

			if mse > tc.threshold {
				t.Errorf("Resize MSE too high: %f (threshold: %f)", mse, tc.threshold)
			}
		})
	}
}

func TestCompareCanny(t *testing.T) {
	testCases := []struct {
		name        string
		createImage func(int, int) *imageutil.RGBAImage
		minJaccard  float64
	}{
		{"Edges", imageutil.CreateEdgeImage, 0.8},
		{"Checkerboard", func(w, h int) *imageutil.RGBAImage {
			return imageutil.CreateCheckerboardImage(w, h, 32)
		}, 0.7},
		{"Sky", imageutil.CreateSkyImage, 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := tc.createImage(256, 256)

			gray := imageutil.ToGrayscale(img)
			grayMat := grayToGocv(gray)
			defer grayMat.Close()

			edgesMat := gocv.NewMat()
			defer edgesMat.Close()
			gocv.Canny(grayMat, &edgesMat, 60, 140)
			gocvEdges := gocvGrayToGray(edgesMat)

			pureGoEdges := imageutil.Canny(gray, 60, 140)

			jaccard := imageutil.CalculateJaccardIndex(gocvEdges, pureGoEdges)
			t.Logf("%s Canny Jaccard index: %f (gocv %d, pure Go %d edge pixels)",
				tc.name, jaccard, gocvEdges.CountAbove(128), pureGoEdges.CountAbove(128))

			if jaccard < tc.minJaccard {
				t.Errorf("Canny Jaccard too low: %f (min: %f)", jaccard, tc.minJaccard)
			}
		})
	}
}

func TestCompareDilate(t *testing.T) {
	gray := imageutil.ToGrayscale(imageutil.CreateEdgeImage(128, 128))
	edges := imageutil.Canny(gray, 60, 140)
	mat := grayToGocv(edges)
	defer mat.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	dilatedMat := gocv.NewMat()
	defer dilatedMat.Close()
	gocv.Dilate(mat, &dilatedMat, kernel)
	gocvDilated := gocvGrayToGray(dilatedMat)

	pureGoDilated, err := imageutil.Dilate(edges, 1)
	if err != nil {
		t.Fatal(err)
	}

	mse := imageutil.CalculateMSEGray(gocvDilated, pureGoDilated)
	t.Logf("Dilate MSE: %f", mse)
	if mse != 0 {
		t.Errorf("Dilate differs from OpenCV: MSE %f", mse)
	}
}

func TestCompareSharpening(t *testing.T) {
	img := imageutil.CreateEdgeImage(256, 256)
	mat := rgbaToGocv(img)
	defer mat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	sharpenedMat := gocv.NewMat()
	defer sharpenedMat.Close()
	gocv.AddWeighted(mat, 1.15, blurred, -0.15, 0, &sharpenedMat)
	gocvSharpened := gocvToRGBA(sharpenedMat)

	pureGoBlurred, err := imageutil.GaussianBlur(img, 3)
	if err != nil {
		t.Fatal(err)
	}
	pureGoSharpened, err := imageutil.AddWeighted(img, 1.15, pureGoBlurred, -0.15, 0)
	if err != nil {
		t.Fatal(err)
	}

	mse := imageutil.CalculateMSE(gocvSharpened, pureGoSharpened)
	maxDiff := imageutil.CalculateMaxDiff(gocvSharpened, pureGoSharpened)
	t.Logf("Sharpening MSE: %f, Max diff: %d", mse, maxDiff)

	if maxDiff > 1 {
		t.Errorf("Sharpening max diff too high: %d (threshold: 1)", maxDiff)
	}
}

func TestCompareKMeans(t *testing.T) {
	centers := []imageutil.RGB{
		{R: 30, G: 40, B: 60},
		{R: 200, G: 60, B: 50},
		{R: 60, G: 180, B: 70},
		{R: 240, G: 220, B: 180},
		{R: 90, G: 90, B: 200},
	}
	img := imageutil.CreateClusteredImage(120, 80, centers, 20, 3)

	samples := samplesToGocv(img)
	defer samples.Close()
	labels := gocv.NewMat()
	defer labels.Close()
	gocvCenters := gocv.NewMat()
	defer gocvCenters.Close()
	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, 30, 1.0)
	gocvCompactness := gocv.KMeans(samples, len(centers), &labels, criteria, 3,
		gocv.KMeansPPCenters, &gocvCenters)

	params := img2gba.DefaultClusterParams()
	q, err := img2gba.Quantize(img, len(centers), params, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("KMeans compactness - gocv: %f, pure Go: %f", gocvCompactness, q.Compactness)
	if q.Compactness > gocvCompactness*1.05 {
		t.Errorf("pure Go compactness %f more than 5%% above gocv %f",
			q.Compactness, gocvCompactness)
	}
}

func TestCompareFullPipeline(t *testing.T) {
	// Runs the filter stages through gocv up to quantization and compares
	// the working image against the pure Go filter with the same settings.
	img := imageutil.CreateSkyImage(320, 240)
	width, height := 80, 60

	mat := rgbaToGocv(img)
	defer mat.Close()
	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(mat, &small, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationArea)
	gocvSmall := gocvToRGBA(small)

	filter := img2gba.NewFilter(
		img2gba.WithTargetWidth(width),
		img2gba.WithContrast(1, 0),
		img2gba.WithEdgeHint(false),
		img2gba.WithDitherStrength(0),
		img2gba.WithPaletteColors(8),
	)
	res, err := filter.Process(img)
	if err != nil {
		t.Fatal(err)
	}

	mse := imageutil.CalculateMSE(gocvSmall, res.Small)
	t.Logf("Full pipeline - working image MSE: %f", mse)
	if mse > 40.0 {
		t.Errorf("Pipeline working image MSE too high: %f (threshold: 40.0)", mse)
	}
}
