package policy

import (
	"fmt"
	"math"
	"time"

	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/omar-florez/reinforcement-learning/util"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Network is the two-layer policy: hidden = tanh(W1·x), p = sigmoid(hidden·W2).
// W1 and W2 are owned exclusively by the network and mutated only by Update.
type Network struct {
	inputSize  int
	hiddenSize int

	learningRate float64

	w1 *mat.Dense    // hiddenSize × inputSize
	w2 *mat.VecDense // hiddenSize

	diff Differentiator
}

var _ core.Model = &Network{}

// NewNetwork constructs a network with weights drawn from N(0, 1/fan-in).
// A zero seed is replaced with the current time.
func NewNetwork(inputSize, hiddenSize int, learningRate float64, diff Differentiator, seed uint64) (*Network, error) {
	if inputSize <= 0 || hiddenSize <= 0 {
		return nil, fmt.Errorf("network dimensions must be positive, got input=%d hidden=%d", inputSize, hiddenSize)
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %f", learningRate)
	}
	if diff == nil {
		return nil, fmt.Errorf("differentiator is required")
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: erand.NewSource(seed)}

	w1 := mat.NewDense(hiddenSize, inputSize, nil)
	scale := 1 / math.Sqrt(float64(inputSize))
	data := w1.RawMatrix().Data
	for i := range data {
		data[i] = normal.Rand() * scale
	}

	w2 := mat.NewVecDense(hiddenSize, nil)
	scale = 1 / math.Sqrt(float64(hiddenSize))
	for i := 0; i < hiddenSize; i++ {
		w2.SetVec(i, normal.Rand()*scale)
	}

	return &Network{
		inputSize:    inputSize,
		hiddenSize:   hiddenSize,
		learningRate: learningRate,
		w1:           w1,
		w2:           w2,
		diff:         diff,
	}, nil
}

func (n *Network) InputSize() int {
	return n.inputSize
}

func (n *Network) HiddenSize() int {
	return n.hiddenSize
}

// Forward runs the policy on one feature vector. Pure given the current
// parameters; the returned hidden activation is needed later for the
// credit-weighted gradient.
func (n *Network) Forward(features []float64) (float64, []float64, error) {
	if len(features) != n.inputSize {
		return 0, nil, fmt.Errorf("%w: features=%d input=%d",
			core.ErrDimensionMismatch, len(features), n.inputSize)
	}

	x := mat.NewVecDense(len(features), features)
	hidden := mat.NewVecDense(n.hiddenSize, nil)
	hidden.MulVec(n.w1, x)

	h := hidden.RawVector().Data
	for i := range h {
		h[i] = math.Tanh(h[i])
	}

	logit := mat.Dot(hidden, n.w2)
	return sigmoid(logit), h, nil
}

// Update applies one episode's gradient: for each step the scalar training
// signal is signal_i × return_i, the gradients over the whole episode are
// summed, and W ← W + lr·grad. A non-finite gradient leaves the parameters
// untouched and reports core.ErrNonFiniteGradient.
func (n *Network) Update(steps []*core.StepRecord, returns []float64) error {
	if len(steps) != len(returns) {
		return fmt.Errorf("steps and returns length mismatch: %d != %d", len(steps), len(returns))
	}
	if len(steps) == 0 {
		return core.ErrEmptyEpisode
	}

	grads, err := n.diff.Gradient(n, steps, returns)
	if err != nil {
		return fmt.Errorf("gradient: %w", err)
	}
	if !allFinite(grads.W1.RawMatrix().Data) || !allFinite(grads.W2.RawVector().Data) {
		return core.ErrNonFiniteGradient
	}

	floats.AddScaled(n.w1.RawMatrix().Data, n.learningRate, grads.W1.RawMatrix().Data)
	floats.AddScaled(n.w2.RawVector().Data, n.learningRate, grads.W2.RawVector().Data)
	return nil
}

// Checkpoint is the serialized form of the network weights.
type Checkpoint struct {
	InputSize  int       `json:"input_size"`
	HiddenSize int       `json:"hidden_size"`
	W1         []float64 `json:"w1"`
	W2         []float64 `json:"w2"`
}

func (n *Network) Save(path string) error {
	return util.SaveJson(path, &Checkpoint{
		InputSize:  n.inputSize,
		HiddenSize: n.hiddenSize,
		W1:         util.CopyFloatSlice(n.w1.RawMatrix().Data),
		W2:         util.CopyFloatSlice(n.w2.RawVector().Data),
	})
}

// Load restores a network from a checkpoint written by Save.
func Load(path string, learningRate float64, diff Differentiator) (*Network, error) {
	cp := &Checkpoint{}
	if err := util.LoadJson(path, cp); err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if len(cp.W1) != cp.InputSize*cp.HiddenSize || len(cp.W2) != cp.HiddenSize {
		return nil, fmt.Errorf("checkpoint shape mismatch: w1=%d w2=%d input=%d hidden=%d",
			len(cp.W1), len(cp.W2), cp.InputSize, cp.HiddenSize)
	}
	net, err := NewNetwork(cp.InputSize, cp.HiddenSize, learningRate, diff, 1)
	if err != nil {
		return nil, err
	}
	copy(net.w1.RawMatrix().Data, cp.W1)
	copy(net.w2.RawVector().Data, cp.W2)
	return net, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func allFinite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
