// Package inference loads the trained regression artifact and produces
// hemoglobin estimates from feature vectors.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"hemolens/internal/features"
)

// ErrModelUnavailable indicates the artifact failed to load at startup.
// The serving boundary must refuse prediction requests while this holds.
var ErrModelUnavailable = errors.New("model unavailable")

// Supported artifact algorithms.
const (
	AlgorithmRidge   = "ridge"
	AlgorithmGBTrees = "gbtrees"
)

// Artifact is the opaque trained model as stored on disk. It is loaded once
// at process start and never mutated afterwards.
type Artifact struct {
	Algorithm    string   `json:"algorithm"`
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`

	Scaler Scaler `json:"scaler"`

	// Linear model (ridge).
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`

	// Tree ensemble (gradient boosting).
	Trees        []Tree  `json:"trees,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`
	BaseScore    float64 `json:"base_score,omitempty"`

	Metrics  Metrics  `json:"metrics"`
	Training Training `json:"training"`
}

// Scaler holds the per-slot affine transform learned at training time.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Metrics are the accuracy figures reported by /info.
type Metrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// Training records the provenance of the fit.
type Training struct {
	TotalSamples int       `json:"total_samples"`
	TrainSamples int       `json:"train_samples"`
	TestSamples  int       `json:"test_samples"`
	Regions      []string  `json:"regions,omitempty"`
	RangeGDL     []float64 `json:"hemoglobin_range,omitempty"`
}

// LoadArtifact reads and validates a model artifact from disk. Any failure
// wraps ErrModelUnavailable so callers can treat load problems uniformly.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrModelUnavailable, path, err)
	}
	if err := art.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &art, nil
}

// validate checks the artifact against the extractor's slot contract.
func (a *Artifact) validate() error {
	if len(a.FeatureNames) != features.NumSlots {
		return fmt.Errorf("artifact has %d feature names, want %d", len(a.FeatureNames), features.NumSlots)
	}
	for i, name := range features.SlotNames() {
		if a.FeatureNames[i] != name {
			return fmt.Errorf("feature slot %d is %q, extractor computes %q", i, a.FeatureNames[i], name)
		}
	}
	if len(a.Scaler.Mean) != features.NumSlots || len(a.Scaler.Scale) != features.NumSlots {
		return fmt.Errorf("scaler dimensions %d/%d, want %d",
			len(a.Scaler.Mean), len(a.Scaler.Scale), features.NumSlots)
	}
	// Zero-variance training slots get unit scale, matching how the scaler
	// was exported.
	for i, s := range a.Scaler.Scale {
		if s == 0 {
			a.Scaler.Scale[i] = 1
		}
	}

	switch a.Algorithm {
	case AlgorithmRidge:
		if len(a.Coefficients) != features.NumSlots {
			return fmt.Errorf("ridge artifact has %d coefficients, want %d", len(a.Coefficients), features.NumSlots)
		}
	case AlgorithmGBTrees:
		if len(a.Trees) == 0 {
			return fmt.Errorf("tree artifact has no trees")
		}
		for ti := range a.Trees {
			if err := a.Trees[ti].validate(); err != nil {
				return fmt.Errorf("tree %d: %v", ti, err)
			}
		}
		if a.LearningRate == 0 {
			a.LearningRate = 1
		}
	default:
		return fmt.Errorf("unknown algorithm %q", a.Algorithm)
	}
	return nil
}

// transform applies the per-slot affine scaling to a feature vector.
func (a *Artifact) transform(v *features.Vector) []float64 {
	scaled := make([]float64, features.NumSlots)
	for i, x := range v {
		scaled[i] = (x - a.Scaler.Mean[i]) / a.Scaler.Scale[i]
	}
	return scaled
}
