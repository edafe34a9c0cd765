package eye

import (
	"image"
	"image/color"
	"testing"

	"hemolens/internal/imaging"
)

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestGate(t *testing.T) {
	d := &Detector{params: DefaultParams()}
	const imgW, imgH = 640, 480

	cases := []struct {
		name       string
		candidate  image.Rectangle
		confidence float64
		accepted   bool
		reason     string
	}{
		{
			name:       "plausible eye",
			candidate:  image.Rect(100, 100, 140, 140),
			confidence: 1.0,
			accepted:   true,
		},
		{
			name:       "single ambiguous hit",
			candidate:  image.Rect(100, 100, 140, 140),
			confidence: 0.5,
			accepted:   true,
		},
		{
			name:       "confidence below floor",
			candidate:  image.Rect(100, 100, 140, 140),
			confidence: 0.4,
			accepted:   false,
			reason:     ReasonLowConfidence,
		},
		{
			name:       "speck",
			candidate:  image.Rect(100, 100, 104, 104),
			confidence: 1.0,
			accepted:   false,
			reason:     ReasonTooSmall,
		},
		{
			name:       "sliver aspect",
			candidate:  image.Rect(100, 100, 220, 120),
			confidence: 1.0,
			accepted:   false,
			reason:     ReasonBadAspect,
		},
		{
			name:       "clipped by frame edge",
			candidate:  image.Rect(0, 0, 40, 40),
			confidence: 1.0,
			accepted:   false,
			reason:     ReasonBorder,
		},
	}

	for _, tc := range cases {
		got := d.gate(tc.candidate, tc.confidence, imgW, imgH)
		if got.Accepted != tc.accepted {
			t.Fatalf("%s: accepted = %v, want %v (reason %q)", tc.name, got.Accepted, tc.accepted, got.Reason)
		}
		if !tc.accepted && got.Reason != tc.reason {
			t.Fatalf("%s: reason = %q, want %q", tc.name, got.Reason, tc.reason)
		}
		if tc.accepted && got.Confidence != tc.confidence {
			t.Fatalf("%s: confidence = %v, want %v", tc.name, got.Confidence, tc.confidence)
		}
	}
}

func TestBestCandidate(t *testing.T) {
	if _, _, found := bestCandidate(nil); found {
		t.Fatalf("empty input produced a candidate")
	}
	if _, _, found := bestCandidate([][]image.Rectangle{{}, {}}); found {
		t.Fatalf("faces without eyes produced a candidate")
	}

	// Both eyes found: full confidence, larger rectangle wins.
	small := image.Rect(10, 10, 30, 30)
	large := image.Rect(50, 10, 80, 40)
	best, conf, found := bestCandidate([][]image.Rectangle{{small, large}})
	if !found || best != large {
		t.Fatalf("best = %v found=%v, want %v", best, found, large)
	}
	if conf != 1.0 {
		t.Fatalf("two-eye confidence = %v, want 1.0", conf)
	}

	// A lone hit is ambiguous.
	_, conf, _ = bestCandidate([][]image.Rectangle{{small}})
	if conf != 0.5 {
		t.Fatalf("single-eye confidence = %v, want 0.5", conf)
	}

	// Extra hits never push confidence past 1.
	_, conf, _ = bestCandidate([][]image.Rectangle{{small, large, small}})
	if conf != 1.0 {
		t.Fatalf("three-eye confidence = %v, want capped 1.0", conf)
	}

	// The face with the most eye hits is preferred over earlier faces.
	best, _, _ = bestCandidate([][]image.Rectangle{{small}, {small, large}})
	if best != large {
		t.Fatalf("best = %v, want eye from the two-hit face", best)
	}
}

func TestDetectMatTooDark(t *testing.T) {
	// The brightness gate fires before any cascade work, so no cascade
	// files are needed for this path.
	d := &Detector{params: DefaultParams()}

	mat, err := imaging.ToMat(solidImage(128, 128, color.RGBA{10, 10, 10, 255}))
	if err != nil {
		t.Fatalf("ToMat: %v", err)
	}
	defer mat.Close()

	res, err := d.DetectMat(mat)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Accepted || res.Reason != ReasonTooDark {
		t.Fatalf("result = %+v, want rejection %q", res, ReasonTooDark)
	}
}

func TestDetectRejectsFeaturelessImage(t *testing.T) {
	d, err := New(DefaultParams())
	if err != nil {
		t.Skipf("cascade files unavailable: %v", err)
	}
	defer d.Close()

	res, err := d.Detect(solidImage(320, 240, color.RGBA{128, 128, 128, 255}))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Accepted {
		t.Fatalf("featureless image accepted: %+v", res)
	}
	if res.Reason == "" {
		t.Fatalf("rejection carries no reason")
	}
}

func TestNewMissingCascades(t *testing.T) {
	_, err := New(DefaultParams().WithCascadeDir(t.TempDir()))
	if err == nil {
		t.Fatalf("expected error for empty cascade directory")
	}
}
