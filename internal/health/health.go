// Package health classifies hemoglobin estimates against the WHO reference range.
package health

import (
	"hemolens/pkg/colorutil"
)

// Status is the clinical bucket for a hemoglobin estimate.
type Status int

const (
	StatusLow Status = iota
	StatusBorderline
	StatusSafe
	StatusHigh
)

func (s Status) String() string {
	switch s {
	case StatusLow:
		return "LOW"
	case StatusBorderline:
		return "BORDERLINE"
	case StatusSafe:
		return "SAFE"
	case StatusHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Classification carries the bucket together with its display color and
// advisory message.
type Classification struct {
	Status   Status
	Message  string
	Color    string // #RRGGBB display color
	Severity string
}

// Reference boundaries in g/dL (WHO guideline values).
const (
	LowBound  = 12.0
	SafeBound = 13.5
	HighBound = 17.5
)

// Classify maps a hemoglobin estimate in g/dL to its clinical bucket.
// It is total over the real line: out-of-range estimates land in LOW or HIGH.
// Boundary handling is exact: 12.0 is BORDERLINE, 13.5 and 17.5 are SAFE.
func Classify(gramsPerDL float64) Classification {
	switch {
	case gramsPerDL < LowBound:
		return Classification{
			Status:   StatusLow,
			Message:  "Low hemoglobin level - consult a doctor",
			Color:    colorutil.Hex(colorutil.AlertRed),
			Severity: "warning",
		}
	case gramsPerDL < SafeBound:
		return Classification{
			Status:   StatusBorderline,
			Message:  "Borderline hemoglobin level - monitor your health",
			Color:    colorutil.Hex(colorutil.Amber),
			Severity: "caution",
		}
	case gramsPerDL <= HighBound:
		return Classification{
			Status:   StatusSafe,
			Message:  "Hemoglobin level is healthy",
			Color:    colorutil.Hex(colorutil.SafeGreen),
			Severity: "safe",
		}
	default:
		return Classification{
			Status:   StatusHigh,
			Message:  "High hemoglobin level - consult a doctor",
			Color:    colorutil.Hex(colorutil.WarnOrange),
			Severity: "warning",
		}
	}
}
