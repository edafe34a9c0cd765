// Package eye provides conjunctival eye-region detection with strict
// acceptance gating.
package eye

import (
	"hemolens/pkg/geometry"
)

// Rejection reasons reported to callers. These are user-facing strings:
// the serving boundary forwards them verbatim in the "message" field.
const (
	ReasonTooDark      = "image too dark"
	ReasonNoFace       = "no face detected"
	ReasonNoEye        = "no eye detected"
	ReasonTooSmall     = "eye region too small"
	ReasonBadAspect    = "eye region has implausible proportions"
	ReasonBorder       = "eye region touches image border"
	ReasonLowConfidence = "eye detection confidence too low"
)

// Result is the detector's decision for one image. It is a tagged value:
// either Accepted with a region and confidence, or rejected with a reason.
// Rejections are data, not errors — they flow through the normal pipeline
// path so callers must handle them.
type Result struct {
	Accepted   bool             `json:"accepted"`
	Region     geometry.RectInt `json:"region,omitempty"`     // eye crop in working-image coordinates
	Confidence float64          `json:"confidence,omitempty"` // 0-1, only meaningful when accepted
	Reason     string           `json:"reason,omitempty"`     // only set when rejected
}

// Accept builds an accepted result.
func Accept(region geometry.RectInt, confidence float64) Result {
	return Result{Accepted: true, Region: region, Confidence: confidence}
}

// Reject builds a rejected result with a human-readable reason.
func Reject(reason string) Result {
	return Result{Accepted: false, Reason: reason}
}
