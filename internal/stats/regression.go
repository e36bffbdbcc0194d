package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/scorelog/internal/model"
)

// OpLinearFit names regression failures in Error.Op
const OpLinearFit = "linear_fit"

// LinearFit fits y = intercept + slope*x by ordinary least squares and
// reports the Pearson correlation of xs and ys.
//
// A constant ys series is perfectly fit by a flat line; its correlation is
// reported as 0.
func LinearFit(xs, ys []int) (model.RegressionResult, error) {
	if len(xs) != len(ys) {
		return model.RegressionResult{}, newError(OpLinearFit,
			fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(xs), len(ys)))
	}
	if len(xs) < 2 {
		return model.RegressionResult{}, newError(OpLinearFit,
			fmt.Errorf("%w: got %d", ErrTooFewPoints, len(xs)))
	}

	x := toFloats(xs)
	y := toFloats(ys)

	if constant(x) {
		return model.RegressionResult{}, newError(OpLinearFit, ErrConstantX)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	r := 0.0
	if !constant(y) {
		r = stat.Correlation(x, y, nil)
	}
	if math.IsNaN(r) {
		r = 0
	}

	return model.RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		R:         r,
		N:         len(xs),
	}, nil
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
