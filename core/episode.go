package core

// StepRecord captures one environment interaction: the input the policy
// saw, what it computed, what was sampled and what it earned.
type StepRecord struct {
	Features    []float64
	Hidden      []float64
	Probability float64
	Action      Action
	Reward      float64
}

// Signal is the score-function gradient signal for this step: the one-hot
// "pretend label" for the sampled action minus the emitted probability.
func (s *StepRecord) Signal() float64 {
	label := 0.0
	if s.Action == ActionUp {
		label = 1.0
	}
	return label - s.Probability
}

// EpisodeBuffer holds the ordered step records of the episode in flight.
// It is filled step by step while the episode is active and consumed in
// bulk when the environment signals termination.
type EpisodeBuffer struct {
	steps []*StepRecord
}

func NewEpisodeBuffer() *EpisodeBuffer {
	return &EpisodeBuffer{
		steps: make([]*StepRecord, 0),
	}
}

func (e *EpisodeBuffer) AddStep(s *StepRecord) {
	e.steps = append(e.steps, s)
}

func (e *EpisodeBuffer) Step(i int) *StepRecord {
	return e.steps[i]
}

func (e *EpisodeBuffer) Len() int {
	return len(e.steps)
}

func (e *EpisodeBuffer) Steps() []*StepRecord {
	return e.steps
}

// Rewards assembles the raw per-step reward sequence in episode order.
func (e *EpisodeBuffer) Rewards() []float64 {
	out := make([]float64, len(e.steps))
	for i, s := range e.steps {
		out[i] = s.Reward
	}
	return out
}

// Signals assembles the per-step gradient signals in episode order.
func (e *EpisodeBuffer) Signals() []float64 {
	out := make([]float64, len(e.steps))
	for i, s := range e.steps {
		out[i] = s.Signal()
	}
	return out
}

// TotalReward is the undiscounted episode reward, used for reporting only.
func (e *EpisodeBuffer) TotalReward() float64 {
	total := 0.0
	for _, s := range e.steps {
		total += s.Reward
	}
	return total
}

func (e *EpisodeBuffer) Clear() {
	e.steps = e.steps[:0]
}
