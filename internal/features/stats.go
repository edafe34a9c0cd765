package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Descriptive statistics over pixel samples. All moments are population
// moments (divide by n, no bias correction) so that a zero-variance sample
// is the only degenerate case, handled by the sentinel below.

// varianceEps guards the skewness/kurtosis denominators. A sample whose
// second central moment falls below this is treated as constant.
const varianceEps = 1e-12

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// popStd returns the population standard deviation.
func popStd(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := stat.Mean(x, nil)
	return math.Sqrt(stat.MomentAbout(2, x, m, nil))
}

// skewness returns the population skewness m3 / m2^1.5, or the 0.0 sentinel
// for a constant sample where the ratio is undefined.
func skewness(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := stat.Mean(x, nil)
	m2 := stat.MomentAbout(2, x, m, nil)
	if m2 < varianceEps {
		return 0
	}
	m3 := stat.MomentAbout(3, x, m, nil)
	return m3 / math.Pow(m2, 1.5)
}

// exKurtosis returns the population excess kurtosis m4 / m2^2 - 3, or the
// 0.0 sentinel for a constant sample.
func exKurtosis(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := stat.Mean(x, nil)
	m2 := stat.MomentAbout(2, x, m, nil)
	if m2 < varianceEps {
		return 0
	}
	m4 := stat.MomentAbout(4, x, m, nil)
	return m4/(m2*m2) - 3
}

// quantile returns the p-quantile of x with linear interpolation.
func quantile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

func maxOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
