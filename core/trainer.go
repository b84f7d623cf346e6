package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrDimensionMismatch = errors.New("feature length does not match model input size")
	ErrNonFiniteGradient = errors.New("gradient contains NaN or Inf")
	ErrEmptyEpisode      = errors.New("episode terminated with no steps")
	ErrContextCancelled  = errors.New("context cancelled")
)

// Model is the trainable policy: a forward pass emitting the probability
// of ActionUp plus the hidden activation, and an update routine consuming
// a finished episode together with its credit signal.
type Model interface {
	Forward(features []float64) (probability float64, hidden []float64, err error)
	Update(steps []*StepRecord, returns []float64) error
	InputSize() int
}

// Sampler turns the emitted probability into a discrete action.
type Sampler interface {
	Sample(probability float64) Action
}

// ReturnCalculator converts a raw reward sequence into the normalized
// discounted returns used to weight per-step gradients.
type ReturnCalculator interface {
	Returns(rewards []float64) []float64
}

// FeatureExtractor turns raw frames into fixed-length feature vectors.
// Reset clears the previous-frame state at episode boundaries.
type FeatureExtractor interface {
	Extract(*Frame) []float64
	Size() int
	Reset()
}

// EpisodeResult is the per-episode summary handed to analyzers, hooks and
// logs once the update has been applied.
type EpisodeResult struct {
	Episode       int           `json:"episode"`
	Steps         int           `json:"steps"`
	Reward        float64       `json:"reward"`
	RunningReward float64       `json:"running_reward"`
	Loss          float64       `json:"loss"`
	Duration      time.Duration `json:"duration"`
}

type DataSet interface{}

// Analyzer accumulates episode results into a dataset for post-run
// reporting.
type Analyzer interface {
	Analyze(*EpisodeResult)
	DataSet() DataSet
	Reset()
}

// Result aggregates a full training run.
type Result struct {
	CompletedEpisodes  int
	SkippedUpdates     int
	TotalTimeSteps     int
	BestReward         float64
	FinalRunningReward float64

	Datasets map[string]DataSet
}

// Trainer owns all mutable training state: the episode in flight, the
// running statistics, and the wiring between environment, features,
// model and returns. Single-threaded; one step, one forward pass and one
// update happen strictly in sequence.
type Trainer struct {
	cfg      *Config
	env      Environment
	model    Model
	sampler  Sampler
	returns  ReturnCalculator
	features FeatureExtractor

	buffer    *EpisodeBuffer
	stats     *RunningStats
	analyzers map[string]Analyzer
	hooks     []func(*EpisodeResult)

	episode int
	skipped int
	logger  zerolog.Logger
}

func NewTrainer(
	cfg *Config,
	env Environment,
	model Model,
	sampler Sampler,
	returns ReturnCalculator,
	features FeatureExtractor,
	logger zerolog.Logger,
) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if features.Size() != model.InputSize() {
		return nil, fmt.Errorf("%w: features=%d model=%d",
			ErrDimensionMismatch, features.Size(), model.InputSize())
	}
	return &Trainer{
		cfg:       cfg,
		env:       env,
		model:     model,
		sampler:   sampler,
		returns:   returns,
		features:  features,
		buffer:    NewEpisodeBuffer(),
		stats:     NewRunningStats(cfg.RewardDecay),
		analyzers: make(map[string]Analyzer),
		logger:    logger,
	}, nil
}

func (t *Trainer) AddAnalyzer(name string, a Analyzer) {
	t.analyzers[name] = a
}

// OnEpisode registers a hook invoked after each completed episode, after
// the update has been applied.
func (t *Trainer) OnEpisode(hook func(*EpisodeResult)) {
	t.hooks = append(t.hooks, hook)
}

func (t *Trainer) RunningStats() *RunningStats {
	return t.stats
}

// RunEpisode plays one full episode and applies the policy update. An
// environment failure is fatal to the run and returned as-is; a
// non-finite gradient skips the update for this episode only.
func (t *Trainer) RunEpisode(ctx context.Context) (*EpisodeResult, error) {
	start := time.Now()

	t.features.Reset()
	t.buffer.Clear()

	frame, err := t.env.Reset()
	if err != nil {
		return nil, fmt.Errorf("environment reset: %w", err)
	}

	done := false
	for step := 0; step < t.cfg.Horizon; step++ {
		select {
		case <-ctx.Done():
			return nil, ErrContextCancelled
		default:
		}

		features := t.features.Extract(frame)
		probability, hidden, err := t.model.Forward(features)
		if err != nil {
			return nil, fmt.Errorf("forward pass: %w", err)
		}
		action := t.sampler.Sample(probability)

		nextFrame, reward, stepDone, err := t.env.Step(action)
		if err != nil {
			return nil, fmt.Errorf("environment step: %w", err)
		}

		t.buffer.AddStep(&StepRecord{
			Features:    features,
			Hidden:      hidden,
			Probability: probability,
			Action:      action,
			Reward:      reward,
		})

		frame = nextFrame
		if stepDone {
			done = true
			break
		}
	}
	if !done {
		t.logger.Warn().Int("horizon", t.cfg.Horizon).Msg("episode cut off at horizon")
	}
	if t.buffer.Len() == 0 {
		return nil, ErrEmptyEpisode
	}

	returns := t.returns.Returns(t.buffer.Rewards())
	if err := t.model.Update(t.buffer.Steps(), returns); err != nil {
		if !errors.Is(err, ErrNonFiniteGradient) {
			return nil, fmt.Errorf("policy update: %w", err)
		}
		t.skipped++
		t.logger.Warn().Int("episode", t.episode).Msg("non-finite gradient, update skipped")
	}

	reward := t.buffer.TotalReward()
	t.stats.Observe(reward)

	result := &EpisodeResult{
		Episode:       t.episode,
		Steps:         t.buffer.Len(),
		Reward:        reward,
		RunningReward: t.stats.RunningReward(),
		Loss:          t.episodeLoss(),
		Duration:      time.Since(start),
	}
	t.episode++

	t.logger.Debug().
		Int("episode", result.Episode).
		Int("steps", result.Steps).
		Float64("reward", result.Reward).
		Float64("running_reward", result.RunningReward).
		Msg("episode finished")

	for _, a := range t.analyzers {
		a.Analyze(result)
	}
	for _, hook := range t.hooks {
		hook(result)
	}

	t.buffer.Clear()
	return result, nil
}

// Run plays the given number of episodes. A negative count runs until the
// context is cancelled.
func (t *Trainer) Run(ctx context.Context, episodes int) (*Result, error) {
	return t.RunUntil(ctx, func(r *EpisodeResult) bool {
		return episodes >= 0 && r.Episode+1 >= episodes
	})
}

// RunUntil plays episodes until the predicate reports done or the context
// is cancelled. Cancellation between episodes is not an error; the partial
// result is returned.
func (t *Trainer) RunUntil(ctx context.Context, donePredicate func(*EpisodeResult) bool) (*Result, error) {
	result := &Result{
		Datasets: make(map[string]DataSet),
	}

EpisodeLoop:
	for {
		select {
		case <-ctx.Done():
			break EpisodeLoop
		default:
		}

		episodeResult, err := t.RunEpisode(ctx)
		if err != nil {
			if errors.Is(err, ErrContextCancelled) {
				break EpisodeLoop
			}
			return result, err
		}

		result.CompletedEpisodes++
		result.TotalTimeSteps += episodeResult.Steps
		if result.CompletedEpisodes == 1 || episodeResult.Reward > result.BestReward {
			result.BestReward = episodeResult.Reward
		}
		result.FinalRunningReward = episodeResult.RunningReward

		if donePredicate(episodeResult) {
			break EpisodeLoop
		}
	}

	result.SkippedUpdates = t.skipped
	for name, a := range t.analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result, nil
}

func (t *Trainer) episodeLoss() float64 {
	total := 0.0
	for _, s := range t.buffer.Steps() {
		signal := s.Signal()
		total += signal * signal
	}
	return total / float64(t.buffer.Len())
}
