package core

import (
	"errors"
	"math"
)

// CompoundResult holds the outcome of a compound interest projection.
type CompoundResult struct {
	Total    float64 `json:"total"`
	Interest float64 `json:"interest"`
}

// CompoundInterest computes the value of principal compounded
// timesCompounded times per year at the given annual rate (percent) over
// the given number of years. Results are rounded to two decimals.
func CompoundInterest(principal, rate float64, timesCompounded int, years float64) (CompoundResult, error) {
	if principal < 0 || rate < 0 || years < 0 {
		return CompoundResult{}, errors.New("principal, rate and years must be non-negative")
	}
	if timesCompounded < 1 {
		return CompoundResult{}, errors.New("times compounded must be at least 1")
	}
	r := rate / 100
	n := float64(timesCompounded)
	total := principal * math.Pow(1+r/n, n*years)
	return CompoundResult{
		Total:    round2(total),
		Interest: round2(total - principal),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
