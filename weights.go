package imgblend

import (
	"math"
	"strconv"
	"strings"
)

// ParseWeights parses a comma separated list of positive weights, e.g. "1,2.5,3".
// An empty string yields no weights.
func ParseWeights(list string) ([]float64, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	weights := make([]float64, 0, len(parts))
	for i, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || !validWeight(w) {
			return nil, configErrorf("invalid weight %q at position %d", p, i)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// NormalizeWeights turns raw weights into blend coefficients that sum to 1.
//
// Empty raw means every one of n inputs weighs 1. It returns the coefficients in
// input order and the total raw weight.
func NormalizeWeights(raw []float64, n int) ([]float64, float64, error) {
	if n < 1 {
		return nil, 0, configErrorf("no inputs to weigh")
	}
	if len(raw) == 0 {
		raw = make([]float64, n)
		for i := range raw {
			raw[i] = 1
		}
	}
	if len(raw) != n {
		return nil, 0, configErrorf("mismatched weight and input count: %d weights for %d inputs", len(raw), n)
	}

	total := 0.0
	for i, w := range raw {
		if !validWeight(w) {
			return nil, 0, configErrorf("invalid weight %v for input %d", w, i)
		}
		total += w
	}

	coeffs := make([]float64, n)
	for i, w := range raw {
		coeffs[i] = w / total
	}
	return coeffs, total, nil
}

func validWeight(w float64) bool {
	return w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}
