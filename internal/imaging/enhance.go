package imaging

import (
	"fmt"
	"image"

	"hemolens/pkg/geometry"

	"gocv.io/x/gocv"
)

// EnhancedSize is the fixed side length of the enhanced crop handed to
// feature extraction. The regression model was fit against crops of this
// size, so it must not change independently of the model artifact.
const EnhancedSize = 256

// CropEnhance extracts the region from a BGR working Mat and prepares it for
// feature extraction: bilateral denoise, CLAHE on the LAB lightness channel,
// then Lanczos resize to EnhancedSize×EnhancedSize. The input Mat is not
// modified. The caller owns the returned Mat and must Close it.
func CropEnhance(src gocv.Mat, region geometry.RectInt) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.Mat{}, fmt.Errorf("%w: empty mat", ErrInvalidImage)
	}

	clamped := region.Clamp(src.Cols(), src.Rows())
	if clamped.Area() == 0 {
		return gocv.Mat{}, fmt.Errorf("%w: region %+v outside image", ErrInvalidImage, region)
	}

	roi := src.Region(clamped.ToImageRect())
	defer roi.Close()
	crop := roi.Clone()
	defer crop.Close()

	// Bilateral filter reduces sensor noise while keeping vessel edges.
	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(crop, &denoised, 5, 75, 75)

	enhanced := applyCLAHE(denoised)
	defer enhanced.Close()

	out := gocv.NewMat()
	gocv.Resize(enhanced, &out, image.Point{X: EnhancedSize, Y: EnhancedSize}, 0, 0, gocv.InterpolationLanczos4)
	return out, nil
}

// applyCLAHE performs contrast-limited adaptive histogram equalization on the
// lightness channel only, leaving chroma untouched.
func applyCLAHE(src gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(channels[0], &equalized)
	equalized.CopyTo(&channels[0])

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	return out
}

// GrayMean returns the mean grayscale brightness (0-255) of a BGR Mat.
func GrayMean(src gocv.Mat) float64 {
	if src.Empty() {
		return 0
	}
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	rows, cols := gray.Rows(), gray.Cols()
	var sum float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sum += float64(gray.GetUCharAt(y, x))
		}
	}
	return sum / float64(rows*cols)
}
