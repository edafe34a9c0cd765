package inference

import (
	"fmt"

	"hemolens/internal/features"
)

// Tree is one regression tree of a boosted ensemble, stored as a flat node
// array. Node 0 is the root.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is either a split (Feature/Threshold/Left/Right) or a leaf
// (Leaf=true, Value).
type TreeNode struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

func (t Tree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= features.NumSlots {
			return fmt.Errorf("node %d splits on feature %d, want 0..%d", i, n.Feature, features.NumSlots-1)
		}
		if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has out-of-range children %d/%d", i, n.Left, n.Right)
		}
		if n.Left == i || n.Right == i {
			return fmt.Errorf("node %d references itself", i)
		}
	}
	return nil
}

// evaluate walks the tree for one scaled feature vector.
func (t Tree) evaluate(scaled []float64) float64 {
	idx := 0
	// Bounded by the node count; validate() rejects self-references and the
	// arrays are acyclic by construction in exported artifacts.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[idx]
		if n.Leaf {
			return n.Value
		}
		if scaled[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return 0
}
