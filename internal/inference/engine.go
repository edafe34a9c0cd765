package inference

import (
	"fmt"
	"time"

	"hemolens/internal/features"

	"gonum.org/v1/gonum/floats"
)

// Estimate is a single hemoglobin estimate with its computation time.
type Estimate struct {
	GramsPerDL float64
	Elapsed    time.Duration
}

// Engine scales feature vectors and evaluates the loaded model. It is
// immutable after construction and safe for concurrent use.
type Engine struct {
	art *Artifact
}

// NewEngine wraps a loaded artifact.
func NewEngine(art *Artifact) (*Engine, error) {
	if art == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrModelUnavailable)
	}
	return &Engine{art: art}, nil
}

// NewEngineFromFile loads the artifact at path and wraps it.
func NewEngineFromFile(path string) (*Engine, error) {
	art, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return &Engine{art: art}, nil
}

// Artifact exposes the loaded model metadata (read-only).
func (e *Engine) Artifact() *Artifact {
	return e.art
}

// Algorithm returns the active model algorithm name.
func (e *Engine) Algorithm() string {
	return e.art.Algorithm
}

// Estimate applies the per-slot scaling and evaluates the model.
// Out-of-range outputs are passed through unmodified; any clamping policy
// belongs to the classifier or the display layer.
func (e *Engine) Estimate(v features.Vector) (Estimate, error) {
	start := time.Now()
	scaled := e.art.transform(&v)

	var value float64
	switch e.art.Algorithm {
	case AlgorithmRidge:
		value = floats.Dot(e.art.Coefficients, scaled) + e.art.Intercept
	case AlgorithmGBTrees:
		value = e.art.BaseScore
		for _, t := range e.art.Trees {
			value += e.art.LearningRate * t.evaluate(scaled)
		}
	default:
		// validate() rejects unknown algorithms at load time.
		return Estimate{}, fmt.Errorf("unknown algorithm %q", e.art.Algorithm)
	}

	return Estimate{GramsPerDL: value, Elapsed: time.Since(start)}, nil
}
