package core

// RunningStats keeps an exponential moving average of episode reward for
// the lifetime of the training run. Reporting only; it never feeds back
// into the update.
type RunningStats struct {
	decay   float64
	reward  float64
	started bool

	Episodes int
}

func NewRunningStats(decay float64) *RunningStats {
	return &RunningStats{decay: decay}
}

func (r *RunningStats) Observe(episodeReward float64) {
	if !r.started {
		r.reward = episodeReward
		r.started = true
	} else {
		r.reward = r.decay*r.reward + (1-r.decay)*episodeReward
	}
	r.Episodes++
}

func (r *RunningStats) RunningReward() float64 {
	return r.reward
}
