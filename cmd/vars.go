package cmd

import (
	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/spf13/cobra"
)

var (
	defaults = core.DefaultConfig()

	savePath string
	logLevel string

	hiddenSize   int
	learningRate float64
	gamma        float64
	rewardDecay  float64
	horizon      int
	seed         int64

	pointsPerGame int

	historyDB       string
	checkpointPath  string
	checkpointEvery int
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&savePath, "save-path", "results", "Path to save results")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.PersistentFlags().IntVar(&hiddenSize, "hidden", defaults.HiddenSize, "Number of hidden units")
	cmd.PersistentFlags().Float64Var(&learningRate, "learning-rate", defaults.LearningRate, "Learning rate")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", defaults.Gamma, "Reward discount factor")
	cmd.PersistentFlags().Float64Var(&rewardDecay, "reward-decay", defaults.RewardDecay, "Running reward EMA decay")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", defaults.Horizon, "Maximum steps per episode")
	cmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")

	cmd.PersistentFlags().IntVar(&pointsPerGame, "points-per-game", 21, "Points needed to win a match")

	cmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "Path to the sqlite history database (empty disables recording)")
	cmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "Path to the network checkpoint file")
	cmd.PersistentFlags().IntVar(&checkpointEvery, "checkpoint-every", 100, "Save the checkpoint every N episodes")
}

func trainConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.HiddenSize = hiddenSize
	cfg.LearningRate = learningRate
	cfg.Gamma = gamma
	cfg.RewardDecay = rewardDecay
	cfg.Horizon = horizon
	cfg.Seed = seed
	return cfg
}
