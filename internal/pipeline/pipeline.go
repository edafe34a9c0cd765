// Package pipeline wires preprocessing, detection, extraction, inference,
// and classification into the single-shot image-to-estimate path.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"hemolens/internal/eye"
	"hemolens/internal/features"
	"hemolens/internal/health"
	"hemolens/internal/imaging"
	"hemolens/internal/inference"

	"gocv.io/x/gocv"
)

// Detector decides whether a working image contains a usable eye region.
type Detector interface {
	DetectMat(mat gocv.Mat) (eye.Result, error)
}

// Estimator turns a feature vector into a hemoglobin estimate.
type Estimator interface {
	Estimate(v features.Vector) (inference.Estimate, error)
}

// Reading is a successful end-to-end result.
type Reading struct {
	GramsPerDL    float64
	Health        health.Classification
	InferenceTime time.Duration
}

// Outcome is the pipeline result for one image: either a Reading, or a
// detector rejection carried as data in Detection.
type Outcome struct {
	Detection eye.Result
	Reading   *Reading // nil when the frame was rejected
}

// Pipeline is stateless per invocation; the detector and estimator it holds
// are shared read-only and safe for concurrent Process calls.
type Pipeline struct {
	det    Detector
	est    Estimator
	maxDim int
}

// New builds a pipeline. maxDim bounds the working image's long edge
// (imaging.DefaultMaxDimension when <= 0).
func New(det Detector, est Estimator, maxDim int) *Pipeline {
	return &Pipeline{det: det, est: est, maxDim: maxDim}
}

// Process runs one image through the full path. A rejected frame is a
// success with Outcome.Reading == nil; errors are reserved for undecodable
// input and model failures.
func (p *Pipeline) Process(ctx context.Context, data []byte) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	working, err := imaging.Normalize(data, p.maxDim)
	if err != nil {
		return Outcome{}, err
	}

	mat, err := imaging.ToMat(working)
	if err != nil {
		return Outcome{}, err
	}
	defer mat.Close()

	detection, err := p.det.DetectMat(mat)
	if err != nil {
		return Outcome{}, fmt.Errorf("detection failed: %w", err)
	}
	if !detection.Accepted {
		return Outcome{Detection: detection}, nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	crop, err := imaging.CropEnhance(mat, detection.Region)
	if err != nil {
		return Outcome{}, fmt.Errorf("crop enhancement failed: %w", err)
	}
	defer crop.Close()

	vec, err := features.Extract(crop)
	if err != nil {
		return Outcome{}, fmt.Errorf("feature extraction failed: %w", err)
	}

	est, err := p.est.Estimate(vec)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Detection: detection,
		Reading: &Reading{
			GramsPerDL:    est.GramsPerDL,
			Health:        health.Classify(est.GramsPerDL),
			InferenceTime: est.Elapsed,
		},
	}, nil
}
