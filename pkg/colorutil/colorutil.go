// Package colorutil provides shared color utilities for the hemoglobin service.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
)

// Status display colors used by the health classifier and clients.
var (
	AlertRed   = color.RGBA{R: 0xFF, G: 0x52, B: 0x52, A: 255}
	Amber      = color.RGBA{R: 0xFF, G: 0xC1, B: 0x07, A: 255}
	SafeGreen  = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 255}
	WarnOrange = color.RGBA{R: 0xFF, G: 0x98, B: 0x00, A: 255}
)

// Hex formats a color as an uppercase #RRGGBB string.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0 // V in 0-255

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0 // S in 0-255
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	h = h / 2 // Convert to OpenCV's 0-180 range

	return h, s, v
}

// Luminance returns the Rec. 601 grayscale brightness (0-255) of an RGB pixel.
func Luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}
