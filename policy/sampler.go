package policy

import (
	"time"

	"github.com/omar-florez/reinforcement-learning/core"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// BernoulliSampler realizes the stochastic policy: the network output is a
// distribution parameter, not an action, and each step draws from it.
type BernoulliSampler struct {
	src erand.Source
}

var _ core.Sampler = &BernoulliSampler{}

// NewBernoulliSampler seeds the sampler; a zero seed is replaced with the
// current time.
func NewBernoulliSampler(seed uint64) *BernoulliSampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &BernoulliSampler{
		src: erand.NewSource(seed),
	}
}

func (s *BernoulliSampler) Sample(probability float64) core.Action {
	draw := distuv.Bernoulli{P: probability, Src: s.src}
	if draw.Rand() > 0 {
		return core.ActionUp
	}
	return core.ActionDown
}

// GreedySampler always picks the more probable action. Used for evaluation
// rollouts, never for training.
type GreedySampler struct{}

var _ core.Sampler = GreedySampler{}

func (GreedySampler) Sample(probability float64) core.Action {
	if probability >= 0.5 {
		return core.ActionUp
	}
	return core.ActionDown
}
