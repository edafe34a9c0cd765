package eye

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"hemolens/internal/imaging"
	"hemolens/pkg/geometry"

	"gocv.io/x/gocv"
)

// Detector locates a candidate eye region using Haar cascades and applies
// the acceptance gate. One Detector is shared by all pipeline invocations;
// cascade sweeps are serialized internally because OpenCV cascade state is
// not safe for concurrent DetectMultiScale calls.
type Detector struct {
	params Params

	mu   sync.Mutex
	face gocv.CascadeClassifier
	eye  gocv.CascadeClassifier
}

// New loads the face and eye cascades and returns a ready Detector.
func New(params Params) (*Detector, error) {
	facePath := filepath.Join(params.CascadeDir, faceCascadeFile)
	eyePath := filepath.Join(params.CascadeDir, eyeCascadeFile)
	for _, p := range []string{facePath, eyePath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("cascade file %s: %w", p, err)
		}
	}

	d := &Detector{
		params: params,
		face:   gocv.NewCascadeClassifier(),
		eye:    gocv.NewCascadeClassifier(),
	}
	if !d.face.Load(facePath) {
		d.Close()
		return nil, fmt.Errorf("failed to load face cascade %s", facePath)
	}
	if !d.eye.Load(eyePath) {
		d.Close()
		return nil, fmt.Errorf("failed to load eye cascade %s", eyePath)
	}
	return d, nil
}

// Close releases the cascade classifiers.
func (d *Detector) Close() {
	d.face.Close()
	d.eye.Close()
}

// Detect runs the cascade sweep over a normalized working image and decides
// whether it is usable: at most one candidate survives the gate. It never
// modifies the input; downstream extraction re-derives the crop from the
// reported region.
func (d *Detector) Detect(img image.Image) (Result, error) {
	mat, err := imaging.ToMat(img)
	if err != nil {
		return Result{}, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	return d.DetectMat(mat)
}

// DetectMat is Detect operating directly on a BGR Mat.
func (d *Detector) DetectMat(mat gocv.Mat) (Result, error) {
	if mat.Empty() {
		return Result{}, fmt.Errorf("empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	if mean := matMean(gray); mean < d.params.MinBrightness {
		return Reject(ReasonTooDark), nil
	}

	// CLAHE evens out illumination so the cascade sees stable gradients.
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()
	clahe.Apply(gray, &equalized)

	faces, eyesPerFace := d.sweep(equalized)
	if len(faces) == 0 {
		return Reject(ReasonNoFace), nil
	}

	best, confidence, found := bestCandidate(eyesPerFace)
	if !found {
		return Reject(ReasonNoEye), nil
	}

	return d.gate(best, confidence, mat.Cols(), mat.Rows()), nil
}

// sweep runs the face cascade, then the eye cascade inside each face ROI.
// Eye rectangles are translated to working-image coordinates.
func (d *Detector) sweep(gray gocv.Mat) (faces []image.Rectangle, eyesPerFace [][]image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.params
	faces = d.face.DetectMultiScaleWithParams(gray, p.FaceScaleFactor, p.FaceMinNeighbors, 0,
		image.Point{X: p.FaceMinSize, Y: p.FaceMinSize}, image.Point{})

	eyesPerFace = make([][]image.Rectangle, len(faces))
	for i, f := range faces {
		roi := gray.Region(f)
		eyes := d.eye.DetectMultiScaleWithParams(roi, p.EyeScaleFactor, p.EyeMinNeighbors, 0,
			image.Point{X: p.EyeMinSize, Y: p.EyeMinSize}, image.Point{})
		roi.Close()

		absolute := make([]image.Rectangle, len(eyes))
		for j, e := range eyes {
			absolute[j] = e.Add(f.Min)
		}
		eyesPerFace[i] = absolute
	}
	return faces, eyesPerFace
}

// bestCandidate picks the largest eye from the face with the most eye hits.
// Confidence follows the two-eye ideal: a face with both eyes found scores
// 1.0, a single ambiguous hit scores 0.5.
func bestCandidate(eyesPerFace [][]image.Rectangle) (image.Rectangle, float64, bool) {
	bestFace := -1
	maxEyes := 0
	for i, eyes := range eyesPerFace {
		if len(eyes) > maxEyes {
			maxEyes = len(eyes)
			bestFace = i
		}
	}
	if bestFace < 0 || maxEyes == 0 {
		return image.Rectangle{}, 0, false
	}

	var best image.Rectangle
	bestArea := 0
	for _, e := range eyesPerFace[bestFace] {
		if a := e.Dx() * e.Dy(); a > bestArea {
			bestArea = a
			best = e
		}
	}

	confidence := float64(maxEyes) / 2.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	return best, confidence, true
}

// gate applies the size/aspect/position sanity checks to the best candidate.
func (d *Detector) gate(candidate image.Rectangle, confidence float64, imgW, imgH int) Result {
	p := d.params
	region := geometry.FromImageRect(candidate)

	if confidence < p.MinConfidence {
		return Reject(ReasonLowConfidence)
	}
	imgArea := imgW * imgH
	if imgArea <= 0 || float64(region.Area())/float64(imgArea) < p.MinAreaFrac {
		return Reject(ReasonTooSmall)
	}
	if ar := region.AspectRatio(); ar < p.MinAspect || ar > p.MaxAspect {
		return Reject(ReasonBadAspect)
	}
	if region.TouchesBorder(imgW, imgH, p.BorderMargin) {
		return Reject(ReasonBorder)
	}

	return Accept(region, confidence)
}

// matMean returns the mean of a single-channel 8U Mat.
func matMean(m gocv.Mat) float64 {
	rows, cols := m.Rows(), m.Cols()
	if rows == 0 || cols == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sum += float64(m.GetUCharAt(y, x))
		}
	}
	return sum / float64(rows*cols)
}
