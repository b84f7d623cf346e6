package policy

import (
	"fmt"

	"github.com/omar-florez/reinforcement-learning/core"
	"gonum.org/v1/gonum/mat"
)

// Gradients holds one gradient tensor per parameter, shape-matched to the
// network's W1 and W2.
type Gradients struct {
	W1 *mat.Dense
	W2 *mat.VecDense
}

// Differentiator computes the parameter gradients of the episode objective
// sum_i signal_i × return_i. The network treats it as an opaque service so
// tests can substitute analytic stubs.
type Differentiator interface {
	Gradient(net *Network, steps []*core.StepRecord, returns []float64) (*Gradients, error)
}

// Analytic is the closed-form backprop for the two-layer network. For each
// step with dlogit = signal × return:
//
//	dW2 += dlogit · hidden
//	dW1 += outer(dlogit · W2 ⊙ (1 − hidden²), features)
type Analytic struct{}

var _ Differentiator = Analytic{}

func (Analytic) Gradient(net *Network, steps []*core.StepRecord, returns []float64) (*Gradients, error) {
	hiddenSize := net.HiddenSize()
	inputSize := net.InputSize()

	dW1 := mat.NewDense(hiddenSize, inputSize, nil)
	dW2 := mat.NewVecDense(hiddenSize, nil)
	dPre := mat.NewVecDense(hiddenSize, nil)

	for i, step := range steps {
		if len(step.Hidden) != hiddenSize || len(step.Features) != inputSize {
			return nil, fmt.Errorf("step %d shape mismatch: hidden=%d features=%d",
				i, len(step.Hidden), len(step.Features))
		}
		dlogit := step.Signal() * returns[i]

		hidden := mat.NewVecDense(hiddenSize, step.Hidden)
		dW2.AddScaledVec(dW2, dlogit, hidden)

		// backprop through tanh: dpre = dlogit · W2 ⊙ (1 − h²)
		for j := 0; j < hiddenSize; j++ {
			h := step.Hidden[j]
			dPre.SetVec(j, dlogit*net.w2.AtVec(j)*(1-h*h))
		}
		features := mat.NewVecDense(inputSize, step.Features)
		dW1.RankOne(dW1, 1, dPre, features)
	}

	return &Gradients{W1: dW1, W2: dW2}, nil
}
