package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ppiankov/scorelog/internal/model"
)

// ComparePoisson evaluates a Poisson model with rate equal to the empirical
// mean at every observed value of d.
func ComparePoisson(d model.Distribution) model.PoissonComparison {
	lambda := d.Mean()
	cmp := model.PoissonComparison{
		Lambda: lambda,
		Points: []model.PoissonPoint{},
	}
	if d.N() == 0 {
		return cmp
	}
	if lambda > 0 {
		cmp.DispersionIndex = d.Variance() / lambda
	}

	prob := poissonProb(lambda)

	var l1 float64
	for _, v := range d.Support() {
		p := model.PoissonPoint{
			Value:     v,
			Empirical: d.P(v),
			Poisson:   prob(v),
		}
		l1 += math.Abs(p.Empirical - p.Poisson)
		cmp.Points = append(cmp.Points, p)
	}
	cmp.TotalVariation = l1 / 2

	return cmp
}

// poissonProb returns the Poisson pmf for lambda; a zero rate puts all mass on 0
func poissonProb(lambda float64) func(int) float64 {
	if lambda <= 0 {
		return func(v int) float64 {
			if v == 0 {
				return 1
			}
			return 0
		}
	}
	dist := distuv.Poisson{Lambda: lambda}
	return func(v int) float64 {
		if v < 0 {
			return 0
		}
		return dist.Prob(float64(v))
	}
}

// Summarize builds the distribution and Poisson comparison of one named series
func Summarize(name string, values []int) (model.SeriesSummary, error) {
	d, err := EmpiricalDistribution(values)
	if err != nil {
		return model.SeriesSummary{}, err
	}
	return model.SeriesSummary{
		Name:         name,
		Distribution: d,
		Poisson:      ComparePoisson(d),
	}, nil
}
