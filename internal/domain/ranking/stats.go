package ranking

import "math"

// stats is the location and spread of one judge's weighted totals.
type stats struct {
	mean  float64
	stdev float64
}

// describe returns the mean and population standard deviation (divide by N).
func describe(values []float64) stats {
	if len(values) == 0 {
		return stats{}
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return stats{mean: m, stdev: math.Sqrt(sq / float64(len(values)))}
}

// zscore expresses v in standard deviations from the mean.
// A judge without spread contributes 0.
func (s stats) zscore(v float64) float64 {
	if s.stdev == 0 {
		return 0
	}
	return (v - s.mean) / s.stdev
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
