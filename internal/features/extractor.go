package features

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// edgeThreshold is the gradient magnitude above which a pixel counts as an
// edge for the edge_density slot.
const edgeThreshold = 30.0

// Extract computes the 46-slot descriptor from an enhanced BGR crop.
// The computation is single-pass deterministic: the same crop always yields
// a bit-identical vector. Degenerate (zero-variance) regions produce the
// 0.0 sentinel in the affected slots; no slot is ever non-finite.
func Extract(crop gocv.Mat) (Vector, error) {
	var v Vector
	if crop.Empty() {
		return v, fmt.Errorf("empty crop")
	}
	if crop.Channels() != 3 {
		return v, fmt.Errorf("expected 3-channel BGR crop, got %d channels", crop.Channels())
	}

	rVals, gVals, bVals := splitBGR(crop)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)
	grayVals := singleChannel(gray)

	out := make([]float64, 0, NumSlots)
	out = append(out, rgbSlots(rVals, gVals, bVals)...)
	out = append(out, colorSpaceSlots(crop, gocv.ColorBGRToLab, true)...)
	out = append(out, colorSpaceSlots(crop, gocv.ColorBGRToHSV, true)...)
	out = append(out, colorSpaceSlots(crop, gocv.ColorBGRToYCrCb, false)...)
	out = append(out, channelStatSlots(rVals)...)
	out = append(out, channelStatSlots(gVals)...)
	out = append(out, channelStatSlots(bVals)...)
	out = append(out, edgeSlots(gray)...)
	out = append(out, contrastSlots(grayVals)...)
	out = append(out, histogramSlots(gray)...)

	if len(out) != NumSlots {
		return v, fmt.Errorf("slot count mismatch: got %d, want %d", len(out), NumSlots)
	}
	copy(v[:], out)
	sanitize(&v)
	return v, nil
}

// rgbSlots computes R_mean, G_mean, B_mean, RG_ratio.
func rgbSlots(r, g, b []float64) []float64 {
	rMean := mean(r)
	gMean := mean(g)
	return []float64{
		rMean,
		gMean,
		mean(b),
		rMean / (gMean + 1e-6),
	}
}

// colorSpaceSlots converts the crop and returns the per-channel means,
// followed by the per-channel standard deviations when withStd is set.
func colorSpaceSlots(crop gocv.Mat, code gocv.ColorConversionCode, withStd bool) []float64 {
	converted := gocv.NewMat()
	defer converted.Close()
	gocv.CvtColor(crop, &converted, code)

	rows, cols := converted.Rows(), converted.Cols()
	n := rows * cols
	channels := [3][]float64{}
	for c := 0; c < 3; c++ {
		channels[c] = make([]float64, 0, n)
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for c := 0; c < 3; c++ {
				channels[c] = append(channels[c], float64(converted.GetUCharAt(y, x*3+c)))
			}
		}
	}

	out := make([]float64, 0, 6)
	for c := 0; c < 3; c++ {
		out = append(out, mean(channels[c]))
	}
	if withStd {
		for c := 0; c < 3; c++ {
			out = append(out, popStd(channels[c]))
		}
	}
	return out
}

// channelStatSlots computes std, q25, q75, skewness for one channel.
func channelStatSlots(ch []float64) []float64 {
	return []float64{
		popStd(ch),
		quantile(ch, 0.25),
		quantile(ch, 0.75),
		skewness(ch),
	}
}

// edgeSlots computes Sobel gradient magnitude statistics over the grayscale
// crop: mean, std, max, and the fraction of pixels above edgeThreshold.
func edgeSlots(gray gocv.Mat) []float64 {
	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(gray, &gx, gocv.MatTypeCV64F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gy, gocv.MatTypeCV64F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	rows, cols := gray.Rows(), gray.Cols()
	mags := make([]float64, 0, rows*cols)
	edgeCount := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m := math.Hypot(gx.GetDoubleAt(y, x), gy.GetDoubleAt(y, x))
			if m > edgeThreshold {
				edgeCount++
			}
			mags = append(mags, m)
		}
	}

	density := 0.0
	if len(mags) > 0 {
		density = float64(edgeCount) / float64(len(mags))
	}
	return []float64{mean(mags), popStd(mags), maxOf(mags), density}
}

// contrastSlots computes RMS contrast, brightness, and dynamic range over
// the grayscale samples.
func contrastSlots(grayVals []float64) []float64 {
	return []float64{
		popStd(grayVals), // RMS contrast equals the population std
		mean(grayVals),
		maxOf(grayVals) - minOf(grayVals),
	}
}

// histogramSlots computes the eight histogram-derived slots from the
// normalized 256-bin grayscale histogram. Apart from entropy, energy, and
// peak, the slots describe the bin-weighted array w[i] = i*p[i] rather than
// the distribution itself; this matches how the model was fit and must not
// be "corrected".
func histogramSlots(gray gocv.Mat) []float64 {
	hist := gocv.NewMat()
	defer hist.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{256}, []float64{0, 256}, false)

	p := make([]float64, 256)
	var total float64
	for i := 0; i < 256; i++ {
		p[i] = float64(hist.GetFloatAt(i, 0))
		total += p[i]
	}
	if total > 0 {
		for i := range p {
			p[i] /= total
		}
	}

	var entropy, energy float64
	w := make([]float64, 256)
	for i, pi := range p {
		if pi > 0 {
			entropy -= pi * math.Log2(pi)
		}
		energy += pi * pi
		w[i] = float64(i) * pi
	}

	return []float64{
		entropy,
		energy,
		mean(w),
		popStd(w),
		skewness(w),
		exKurtosis(w),
		energy, // uniformity is the same sum of squares
		maxOf(p),
	}
}

// splitBGR samples the crop into per-channel R, G, B float slices.
func splitBGR(crop gocv.Mat) (r, g, b []float64) {
	rows, cols := crop.Rows(), crop.Cols()
	n := rows * cols
	r = make([]float64, 0, n)
	g = make([]float64, 0, n)
	b = make([]float64, 0, n)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			b = append(b, float64(crop.GetUCharAt(y, x*3+0)))
			g = append(g, float64(crop.GetUCharAt(y, x*3+1)))
			r = append(r, float64(crop.GetUCharAt(y, x*3+2)))
		}
	}
	return r, g, b
}

// singleChannel samples a 1-channel 8U Mat into a float slice.
func singleChannel(m gocv.Mat) []float64 {
	rows, cols := m.Rows(), m.Cols()
	out := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out = append(out, float64(m.GetUCharAt(y, x)))
		}
	}
	return out
}

// sanitize replaces any non-finite slot with the 0.0 sentinel. The model
// cannot handle NaN or Inf input, so this is a hard guarantee of Extract.
func sanitize(v *Vector) {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
		}
	}
}
