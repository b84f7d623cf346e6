package policy

import (
	"github.com/omar-florez/reinforcement-learning/core"
	"gonum.org/v1/gonum/stat"
)

// ReturnCalculator converts raw per-step rewards into the normalized
// discounted returns that scale each step's gradient contribution.
type ReturnCalculator struct {
	gamma float64
}

var _ core.ReturnCalculator = &ReturnCalculator{}

func NewReturnCalculator(gamma float64) *ReturnCalculator {
	return &ReturnCalculator{gamma: gamma}
}

// Discount scans backward keeping a running accumulator of discounted
// future reward. A nonzero reward marks a point boundary within the
// episode; the accumulator resets there so credit never leaks backward
// across points.
func (r *ReturnCalculator) Discount(rewards []float64) []float64 {
	out := make([]float64, len(rewards))
	acc := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		if rewards[t] != 0 {
			acc = 0
		}
		acc = rewards[t] + r.gamma*acc
		out[t] = acc
	}
	return out
}

// Normalize centers the returns to zero mean and scales them to unit
// population standard deviation, using this episode's own statistics.
// Zero variance skips the scaling step, so a constant sequence comes out
// all zeros instead of NaN.
func (r *ReturnCalculator) Normalize(returns []float64) []float64 {
	out := make([]float64, len(returns))
	if len(returns) == 0 {
		return out
	}
	mean := stat.Mean(returns, nil)
	std := stat.PopStdDev(returns, nil)
	for i, v := range returns {
		out[i] = v - mean
		if std > 0 {
			out[i] /= std
		}
	}
	return out
}

// Returns is the full credit signal: discount then normalize, each applied
// exactly once per episode.
func (r *ReturnCalculator) Returns(rewards []float64) []float64 {
	return r.Normalize(r.Discount(rewards))
}
