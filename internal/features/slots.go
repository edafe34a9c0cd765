// Package features computes the fixed 46-slot descriptor of an accepted
// conjunctival crop.
//
// Slot order and per-slot arithmetic are the binary contract between the
// extractor and the regression model: the scaler and weights in the model
// artifact are keyed to these positions. Neither the order nor any slot's
// definition may change independently of the artifact.
package features

// NumSlots is the fixed length of the descriptor.
const NumSlots = 46

// Vector is the ordered 46-slot descriptor. Every slot is always finite.
type Vector [NumSlots]float64

// Slice returns the vector as a float64 slice (a copy is not made; the
// backing array is the vector itself).
func (v *Vector) Slice() []float64 {
	return v[:]
}

// slotNames lists every slot in contract order, grouped by construction:
// RGB (4), LAB (6), HSV (6), YCrCb (3), per-channel statistics (12),
// edge (4), contrast (3), histogram (8).
var slotNames = [NumSlots]string{
	"R_mean", "G_mean", "B_mean", "RG_ratio",
	"L_mean", "a_mean", "b_mean", "L_std", "a_std", "b_std",
	"H_mean", "S_mean", "V_mean", "H_std", "S_std", "V_std",
	"Y_mean", "Cr_mean", "Cb_mean",
	"R_std", "R_q25", "R_q75", "R_skewness",
	"G_std", "G_q25", "G_q75", "G_skewness",
	"B_std", "B_q25", "B_q75", "B_skewness",
	"edge_mean", "edge_std", "edge_max", "edge_density",
	"contrast_rms", "brightness", "dynamic_range",
	"hist_entropy", "hist_energy", "hist_mean", "hist_std",
	"hist_skewness", "hist_kurtosis", "hist_uniformity", "hist_peak",
}

// SlotNames returns the slot names in contract order.
func SlotNames() []string {
	names := make([]string, NumSlots)
	copy(names, slotNames[:])
	return names
}
