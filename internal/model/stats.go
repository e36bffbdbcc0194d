package model

import (
	"encoding/json"
	"maps"
	"slices"
)

// RegressionResult is an ordinary least-squares line y = Intercept + Slope*x
// together with the Pearson correlation of the paired series
type RegressionResult struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"` // Pearson correlation coefficient
	N         int     `json:"n"` // Number of paired observations
}

// Distribution is an empirical probability mass function over integer outcomes.
// It is immutable once built.
type Distribution struct {
	pmf      map[int]float64
	n        int
	mean     float64
	variance float64
}

// NewDistribution builds a Distribution from precomputed parts; pmf is copied
func NewDistribution(pmf map[int]float64, n int, mean, variance float64) Distribution {
	return Distribution{
		pmf:      maps.Clone(pmf),
		n:        n,
		mean:     mean,
		variance: variance,
	}
}

// P returns the relative frequency of v (0 if never observed)
func (d Distribution) P(v int) float64 {
	return d.pmf[v]
}

// Support returns the observed values in ascending order
func (d Distribution) Support() []int {
	return slices.Sorted(maps.Keys(d.pmf))
}

// PMF returns a copy of the value -> relative frequency mapping
func (d Distribution) PMF() map[int]float64 {
	return maps.Clone(d.pmf)
}

// N returns the number of observations
func (d Distribution) N() int { return d.n }

// Mean returns the arithmetic mean, the rate of a comparison Poisson model
func (d Distribution) Mean() float64 { return d.mean }

// Variance returns the population variance
func (d Distribution) Variance() float64 { return d.variance }

type distributionJSON struct {
	N        int             `json:"n"`
	Mean     float64         `json:"mean"`
	Variance float64         `json:"variance"`
	PMF      map[int]float64 `json:"pmf"`
}

// MarshalJSON encodes the distribution with its pmf keyed by outcome
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(distributionJSON{
		N:        d.n,
		Mean:     d.mean,
		Variance: d.variance,
		PMF:      d.pmf,
	})
}

// UnmarshalJSON decodes a distribution written by MarshalJSON
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var raw distributionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = NewDistribution(raw.PMF, raw.N, raw.Mean, raw.Variance)
	return nil
}

// PoissonPoint compares the observed and Poisson probability of one outcome
type PoissonPoint struct {
	Value     int     `json:"value"`
	Empirical float64 `json:"empirical"`
	Poisson   float64 `json:"poisson"`
}

// PoissonComparison is the data needed to overlay a Poisson model on a Distribution
type PoissonComparison struct {
	Lambda          float64        `json:"lambda"`           // Poisson rate, equal to the empirical mean
	DispersionIndex float64        `json:"dispersion_index"` // Variance / mean; 1 for a Poisson process
	TotalVariation  float64        `json:"total_variation"`  // Half the L1 distance over the observed support
	Points          []PoissonPoint `json:"points"`           // Ascending by value
}

// SeriesSummary bundles the distribution of one series with its Poisson comparison
type SeriesSummary struct {
	Name         string            `json:"name"`
	Distribution Distribution      `json:"distribution"`
	Poisson      PoissonComparison `json:"poisson"`
}
