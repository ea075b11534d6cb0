// Package uniformity computes the two table-shape scores, τ0 and τ1, from a
// table's field-count vector. Both are pure functions of []int and have no
// dependency on the tokenizer or sample bytes; keeping them that way makes
// them trivial to table-test in isolation.
package uniformity

import "math"

// Tau0 is the consistency score: 1/(1+2σ) where σ is the population
// standard deviation of fieldCounts. A perfectly uniform table (σ = 0)
// scores 1.
func Tau0(fieldCounts []int) float64 {
	if len(fieldCounts) == 0 {
		return 0
	}
	sigma := popStdDev(fieldCounts)
	return 1 / (1 + 2*sigma)
}

// Tau1 is the bounded dispersion score, a weighted composite of mode,
// range, and transition stability. modalFieldCount and modalFrequency come
// from the same table the field counts were drawn from.
func Tau1(fieldCounts []int, modalFieldCount, modalFrequency int) float64 {
	n := len(fieldCounts)
	if n == 0 {
		return 0
	}

	modeScore := float64(modalFrequency) / float64(n)

	maxFC, minFC := fieldCounts[0], fieldCounts[0]
	for _, fc := range fieldCounts {
		if fc > maxFC {
			maxFC = fc
		}
		if fc < minFC {
			minFC = fc
		}
	}
	rangeScore := 1.0
	if maxFC > 0 {
		rangeScore = 1 - float64(maxFC-minFC)/float64(maxFC)
	}
	rangeScore = clamp01(rangeScore)

	transitions := 0
	for i := 1; i < n; i++ {
		if fieldCounts[i] != fieldCounts[i-1] {
			transitions++
		}
	}
	denom := n - 1
	if denom < 1 {
		denom = 1
	}
	transitionScore := 1 - float64(transitions)/float64(denom)

	return 0.4*modeScore + 0.3*rangeScore + 0.3*transitionScore
}

func popStdDev(vals []int) float64 {
	n := float64(len(vals))
	var sum float64
	for _, v := range vals {
		sum += float64(v)
	}
	mean := sum / n

	var sqDiff float64
	for _, v := range vals {
		d := float64(v) - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff / n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
