package stats

import (
	"github.com/ppiankov/scorelog/internal/model"
)

// OpDistribution names distribution failures in Error.Op
const OpDistribution = "distribution"

// EmpiricalDistribution counts how often each value occurs and divides by
// the number of observations. The returned pmf sums to 1. Variance is the
// population variance E[x²] - mean².
func EmpiricalDistribution(values []int) (model.Distribution, error) {
	if len(values) == 0 {
		return model.Distribution{}, newError(OpDistribution, ErrEmpty)
	}

	counts := make(map[int]int)
	var sum, sumSquares float64
	for _, v := range values {
		counts[v]++
		f := float64(v)
		sum += f
		sumSquares += f * f
	}

	n := float64(len(values))
	pmf := make(map[int]float64, len(counts))
	for v, c := range counts {
		pmf[v] = float64(c) / n
	}

	mean := sum / n
	variance := sumSquares/n - mean*mean
	if variance < 0 {
		// rounding on constant series
		variance = 0
	}

	return model.NewDistribution(pmf, len(values), mean, variance), nil
}
