package eye

// Params holds detection and gating parameters.
//
// The gate is deliberately strict: a false accept corrupts the feature
// vector and silently degrades the estimate, so every threshold below is
// biased toward rejection over a borderline accept.
type Params struct {
	// CascadeDir is the directory holding the Haar cascade XML files.
	CascadeDir string

	// Cascade sweep tuning. High MinNeighbors keeps the detector strict.
	FaceScaleFactor  float64
	FaceMinNeighbors int
	FaceMinSize      int // pixels
	EyeScaleFactor   float64
	EyeMinNeighbors  int
	EyeMinSize       int // pixels

	// Acceptance gating on the best candidate.
	MinBrightness  float64 // mean grayscale floor, 0-255
	MinAreaFrac    float64 // eye area relative to image area
	MinAspect      float64 // width/height band for a palpebral crop
	MaxAspect      float64
	BorderMargin   int     // pixels the region must keep from the frame edge
	MinConfidence  float64 // 0-1 floor on the derived confidence
}

// Haar cascade file names shipped with OpenCV.
const (
	faceCascadeFile = "haarcascade_frontalface_default.xml"
	eyeCascadeFile  = "haarcascade_eye.xml"
)

// DefaultParams returns the strict defaults used by the serving pipeline.
func DefaultParams() Params {
	return Params{
		CascadeDir: "/usr/share/opencv4/haarcascades",

		// Slow sweep with high neighbor counts: fewer, better candidates.
		FaceScaleFactor:  1.05,
		FaceMinNeighbors: 7,
		FaceMinSize:      50,
		EyeScaleFactor:   1.05,
		EyeMinNeighbors:  8,
		EyeMinSize:       20,

		MinBrightness: 40,     // below this the conjunctiva color is unusable
		MinAreaFrac:   0.0008, // eye must be a meaningful share of the frame
		MinAspect:     0.5,
		MaxAspect:     2.2,
		BorderMargin:  2,
		MinConfidence: 0.5,
	}
}

// WithCascadeDir returns a copy of params with a custom cascade directory.
func (p Params) WithCascadeDir(dir string) Params {
	p.CascadeDir = dir
	return p
}

// WithMinBrightness returns a copy of params with a custom brightness floor.
func (p Params) WithMinBrightness(v float64) Params {
	p.MinBrightness = v
	return p
}

// WithMinConfidence returns a copy of params with a custom confidence floor.
func (p Params) WithMinConfidence(v float64) Params {
	p.MinConfidence = v
	return p
}
