package analysis

import (
	"testing"

	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardAnalyzer(t *testing.T) {
	a := NewRewardAnalyzer(2)

	a.Analyze(&core.EpisodeResult{Episode: 0, Reward: -21, RunningReward: -21, Steps: 100})
	a.Analyze(&core.EpisodeResult{Episode: 1, Reward: -18, RunningReward: -20.97, Steps: 120})
	a.Analyze(&core.EpisodeResult{Episode: 2, Reward: -20, RunningReward: -20.96, Steps: 110})

	d, ok := a.DataSet().(*rewardDataset)
	require.True(t, ok)

	assert.Equal(t, []float64{-21, -18, -20}, d.Rewards)
	assert.Equal(t, []int{100, 120, 110}, d.Steps)
	assert.Equal(t, -18.0, d.BestReward)
	assert.Equal(t, 1, d.BestEpisode)
	assert.InDelta(t, -19.0, d.TailMean, 1e-9) // mean of the last 2
}

func TestRewardAnalyzerDataSetIsACopy(t *testing.T) {
	a := NewRewardAnalyzer(10)
	a.Analyze(&core.EpisodeResult{Episode: 0, Reward: 1})

	d := a.DataSet().(*rewardDataset)
	d.Rewards[0] = 99

	fresh := a.DataSet().(*rewardDataset)
	assert.Equal(t, 1.0, fresh.Rewards[0])
}

func TestRewardAnalyzerReset(t *testing.T) {
	a := NewRewardAnalyzer(10)
	a.Analyze(&core.EpisodeResult{Episode: 0, Reward: 1})
	a.Reset()

	d := a.DataSet().(*rewardDataset)
	assert.Empty(t, d.Rewards)
	assert.Equal(t, -1, d.BestEpisode)
}

func TestNoOpAnalyzer(t *testing.T) {
	a := NewNoOpAnalyzer()
	a.Analyze(&core.EpisodeResult{})
	assert.Nil(t, a.DataSet())
}
