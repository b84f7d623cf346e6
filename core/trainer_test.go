package core_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/omar-florez/reinforcement-learning/policy"
	"github.com/omar-florez/reinforcement-learning/util"
)

// scriptedEnv replays fixed reward sequences, one per episode, signaling
// termination on the last step of each.
type scriptedEnv struct {
	episodes [][]float64
	episode  int
	step     int
}

func (e *scriptedEnv) Reset() (*core.Frame, error) {
	e.step = 0
	return core.NewFrame(1, 1), nil
}

func (e *scriptedEnv) Step(core.Action) (*core.Frame, float64, bool, error) {
	rewards := e.episodes[e.episode%len(e.episodes)]
	reward := rewards[e.step]
	e.step++
	done := e.step == len(rewards)
	if done {
		e.episode++
	}
	return core.NewFrame(1, 1), reward, done, nil
}

// fakeExtractor emits a distinct one-hot vector per step.
type fakeExtractor struct {
	size   int
	calls  int
	resets int
}

func (f *fakeExtractor) Size() int { return f.size }

func (f *fakeExtractor) Reset() {
	f.resets++
	f.calls = 0
}

func (f *fakeExtractor) Extract(*core.Frame) []float64 {
	v := make([]float64, f.size)
	v[f.calls%f.size] = 1
	f.calls++
	return v
}

type fakeModel struct {
	inputSize int
	p         float64
	updateErr error

	updates       int
	updateSteps   []*core.StepRecord
	updateReturns []float64
}

func (m *fakeModel) InputSize() int { return m.inputSize }

func (m *fakeModel) Forward(features []float64) (float64, []float64, error) {
	return m.p, []float64{0.1, -0.2}, nil
}

func (m *fakeModel) Update(steps []*core.StepRecord, returns []float64) error {
	m.updates++
	m.updateSteps = steps
	m.updateReturns = returns
	return m.updateErr
}

type upSampler struct{}

func (upSampler) Sample(float64) core.Action { return core.ActionUp }

func testConfig(inputSize int) *core.Config {
	cfg := core.DefaultConfig()
	cfg.InputSize = inputSize
	cfg.HiddenSize = 2
	cfg.Horizon = 100
	cfg.RewardDecay = 0.5
	return cfg
}

func newTestTrainer(t *testing.T, cfg *core.Config, env core.Environment, model core.Model) *core.Trainer {
	t.Helper()
	trainer, err := core.NewTrainer(
		cfg, env, model,
		upSampler{},
		policy.NewReturnCalculator(cfg.Gamma),
		&fakeExtractor{size: cfg.InputSize},
		zerolog.Nop(),
	)
	require.NoError(t, err)
	return trainer
}

func TestNewTrainerDimensionMismatch(t *testing.T) {
	cfg := testConfig(4)
	_, err := core.NewTrainer(
		cfg,
		&scriptedEnv{episodes: [][]float64{{1}}},
		&fakeModel{inputSize: 5, p: 0.5},
		upSampler{},
		policy.NewReturnCalculator(cfg.Gamma),
		&fakeExtractor{size: 4},
		zerolog.Nop(),
	)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestNewTrainerInvalidConfig(t *testing.T) {
	cfg := testConfig(4)
	cfg.Gamma = 1.5
	_, err := core.NewTrainer(
		cfg,
		&scriptedEnv{episodes: [][]float64{{1}}},
		&fakeModel{inputSize: 4, p: 0.5},
		upSampler{},
		policy.NewReturnCalculator(cfg.Gamma),
		&fakeExtractor{size: 4},
		zerolog.Nop(),
	)
	assert.Error(t, err)
}

func TestRunEpisodeCollectsAndUpdates(t *testing.T) {
	cfg := testConfig(4)
	model := &fakeModel{inputSize: 4, p: 0.5}
	extractor := &fakeExtractor{size: 4}
	trainer, err := core.NewTrainer(
		cfg,
		&scriptedEnv{episodes: [][]float64{{0, 0, 1}}},
		model,
		upSampler{},
		policy.NewReturnCalculator(cfg.Gamma),
		extractor,
		zerolog.Nop(),
	)
	require.NoError(t, err)

	result, err := trainer.RunEpisode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Episode)
	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, 1.0, result.Reward)
	assert.Equal(t, 1.0, result.RunningReward)
	assert.Equal(t, 1, extractor.resets)

	require.Len(t, model.updateSteps, 3)
	require.Len(t, model.updateReturns, 3)
	for i, s := range model.updateSteps {
		assert.Equal(t, 0.5, s.Probability, "step %d", i)
		assert.Equal(t, core.ActionUp, s.Action, "step %d", i)
	}
	assert.Equal(t, 1.0, model.updateSteps[2].Reward)

	// returns are the episode's normalized discounted credit
	assert.InDelta(t, 0, stat.Mean(model.updateReturns, nil), 1e-9)
	assert.InDelta(t, 1, stat.PopStdDev(model.updateReturns, nil), 1e-9)
	assert.Less(t, model.updateReturns[0], model.updateReturns[2])
}

func TestRunCompletesRequestedEpisodes(t *testing.T) {
	cfg := testConfig(4)
	model := &fakeModel{inputSize: 4, p: 0.5}
	trainer := newTestTrainer(t, cfg, &scriptedEnv{episodes: [][]float64{{0, 0, 1}}}, model)

	result, err := trainer.Run(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, result.CompletedEpisodes)
	assert.Equal(t, 9, result.TotalTimeSteps)
	assert.Equal(t, 3, model.updates)
	assert.Equal(t, 1.0, result.BestReward)
}

func TestRunningRewardEMA(t *testing.T) {
	cfg := testConfig(4) // RewardDecay 0.5
	model := &fakeModel{inputSize: 4, p: 0.5}
	env := &scriptedEnv{episodes: [][]float64{{1}, {0, -1}}}
	trainer := newTestTrainer(t, cfg, env, model)

	result, err := trainer.Run(context.Background(), 2)
	require.NoError(t, err)

	// first episode seeds the EMA, second blends: 0.5·1 + 0.5·(−1) = 0
	assert.InDelta(t, 0.0, result.FinalRunningReward, 1e-12)
	assert.Equal(t, 1.0, result.BestReward)
}

func TestRunContextCancelled(t *testing.T) {
	cfg := testConfig(4)
	model := &fakeModel{inputSize: 4, p: 0.5}
	trainer := newTestTrainer(t, cfg, &scriptedEnv{episodes: [][]float64{{0, 0, 1}}}, model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := trainer.Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CompletedEpisodes)
}

func TestRunUntilPredicate(t *testing.T) {
	cfg := testConfig(4)
	model := &fakeModel{inputSize: 4, p: 0.5}
	trainer := newTestTrainer(t, cfg, &scriptedEnv{episodes: [][]float64{{0, 0, 1}}}, model)

	result, err := trainer.RunUntil(context.Background(), func(r *core.EpisodeResult) bool {
		return r.Episode == 4
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.CompletedEpisodes)
}

func TestNonFiniteGradientSkipsUpdate(t *testing.T) {
	cfg := testConfig(4)
	model := &fakeModel{inputSize: 4, p: 0.5, updateErr: core.ErrNonFiniteGradient}
	trainer := newTestTrainer(t, cfg, &scriptedEnv{episodes: [][]float64{{0, 0, 1}}}, model)

	result, err := trainer.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CompletedEpisodes)
	assert.Equal(t, 2, result.SkippedUpdates)
}

func TestAnalyzersAndHooksSeeEveryEpisode(t *testing.T) {
	cfg := testConfig(4)
	model := &fakeModel{inputSize: 4, p: 0.5}
	trainer := newTestTrainer(t, cfg, &scriptedEnv{episodes: [][]float64{{1}}}, model)

	var hooked []int
	trainer.OnEpisode(func(r *core.EpisodeResult) {
		hooked = append(hooked, r.Episode)
	})

	_, err := trainer.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, hooked)
}

// End-to-end with the real network and analytic gradient: for one-hot
// features, the direction of each W1 column update must match the sign of
// (per-step signal × normalized return) through W2.
func TestEpisodeUpdateDirection(t *testing.T) {
	const inputSize = 3
	cfg := testConfig(inputSize)
	cfg.Gamma = 0.9

	net, err := policy.NewNetwork(inputSize, 2, 0.01, policy.Analytic{}, 17)
	require.NoError(t, err)

	dir := t.TempDir()
	before := filepath.Join(dir, "before.json")
	after := filepath.Join(dir, "after.json")
	require.NoError(t, net.Save(before))

	trainer, err := core.NewTrainer(
		cfg,
		&scriptedEnv{episodes: [][]float64{{0, 0, 1}}},
		net,
		upSampler{},
		policy.NewReturnCalculator(cfg.Gamma),
		&fakeExtractor{size: inputSize},
		zerolog.Nop(),
	)
	require.NoError(t, err)

	_, err = trainer.RunEpisode(context.Background())
	require.NoError(t, err)
	require.NoError(t, net.Save(after))

	var cpBefore, cpAfter policy.Checkpoint
	require.NoError(t, util.LoadJson(before, &cpBefore))
	require.NoError(t, util.LoadJson(after, &cpAfter))

	// normalized returns of [0,0,1] at γ=0.9: negative, negative, positive
	returns := policy.NewReturnCalculator(cfg.Gamma).Returns([]float64{0, 0, 1})

	for step := 0; step < inputSize; step++ {
		for k := 0; k < cpBefore.HiddenSize; k++ {
			delta := cpAfter.W1[k*inputSize+step] - cpBefore.W1[k*inputSize+step]
			if math.Abs(delta) < 1e-15 {
				continue
			}
			// sampled action is always up, so the signal (1−p) is positive
			want := returns[step] * cpBefore.W2[k]
			assert.Equal(t, math.Signbit(want), math.Signbit(delta),
				"step %d hidden %d: delta %v want sign of %v", step, k, delta, want)
		}
	}
}
