package analysis

import (
	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/omar-florez/reinforcement-learning/util"
	"gonum.org/v1/gonum/stat"
)

type rewardDataset struct {
	Rewards        []float64 `json:"rewards"`
	RunningRewards []float64 `json:"running_rewards"`
	Steps          []int     `json:"steps"`

	BestReward  float64 `json:"best_reward"`
	BestEpisode int     `json:"best_episode"`
	TailMean    float64 `json:"tail_mean"`
}

func (d *rewardDataset) Copy() *rewardDataset {
	return &rewardDataset{
		Rewards:        util.CopyFloatSlice(d.Rewards),
		RunningRewards: util.CopyFloatSlice(d.RunningRewards),
		Steps:          append([]int(nil), d.Steps...),
		BestReward:     d.BestReward,
		BestEpisode:    d.BestEpisode,
		TailMean:       d.TailMean,
	}
}

// RewardAnalyzer collects the per-episode reward curve of a training run.
// The tail mean summarizes the final window of episodes, which is what
// you compare across hyperparameter settings.
type RewardAnalyzer struct {
	tailWindow int
	dataset    *rewardDataset
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer(tailWindow int) *RewardAnalyzer {
	if tailWindow <= 0 {
		tailWindow = 100
	}
	return &RewardAnalyzer{
		tailWindow: tailWindow,
		dataset:    newRewardDataset(),
	}
}

func newRewardDataset() *rewardDataset {
	return &rewardDataset{
		Rewards:        make([]float64, 0),
		RunningRewards: make([]float64, 0),
		Steps:          make([]int, 0),
		BestEpisode:    -1,
	}
}

func (a *RewardAnalyzer) Analyze(result *core.EpisodeResult) {
	d := a.dataset
	if d.BestEpisode == -1 || result.Reward > d.BestReward {
		d.BestReward = result.Reward
		d.BestEpisode = result.Episode
	}
	d.Rewards = append(d.Rewards, result.Reward)
	d.RunningRewards = append(d.RunningRewards, result.RunningReward)
	d.Steps = append(d.Steps, result.Steps)
}

func (a *RewardAnalyzer) DataSet() core.DataSet {
	d := a.dataset.Copy()
	tail := util.MinInt(a.tailWindow, len(d.Rewards))
	if tail > 0 {
		d.TailMean = stat.Mean(d.Rewards[len(d.Rewards)-tail:], nil)
	}
	return d
}

func (a *RewardAnalyzer) Reset() {
	a.dataset = newRewardDataset()
}
