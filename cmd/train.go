package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/omar-florez/reinforcement-learning/analysis"
	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/omar-florez/reinforcement-learning/envs/pong"
	"github.com/omar-florez/reinforcement-learning/features"
	"github.com/omar-florez/reinforcement-learning/history"
	"github.com/omar-florez/reinforcement-learning/policy"
	"github.com/omar-florez/reinforcement-learning/util"
)

func TrainCommand() *cobra.Command {
	var episodes int
	var resume bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the policy network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(episodes, resume)
		},
	}
	cmd.Flags().IntVar(&episodes, "episodes", 10000, "Number of episodes to train (negative runs until interrupted)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from the checkpoint file")
	return cmd
}

func runTrain(episodes int, resume bool) error {
	logger := newLogger()
	cfg := trainConfig()

	env := pong.New(pong.Config{PointsPerGame: pointsPerGame, Seed: cfg.Seed})
	extractor := features.NewExtractor()
	cfg.InputSize = extractor.Size()

	if err := util.SaveJson(path.Join(savePath, "config.json"), cfg); err != nil {
		return fmt.Errorf("record config: %w", err)
	}

	var net *policy.Network
	var err error
	if resume && checkpointPath != "" {
		net, err = policy.Load(checkpointPath, cfg.LearningRate, policy.Analytic{})
		if err != nil {
			return err
		}
		logger.Info().Str("checkpoint", checkpointPath).Msg("resumed from checkpoint")
	} else {
		net, err = policy.NewNetwork(cfg.InputSize, cfg.HiddenSize, cfg.LearningRate, policy.Analytic{}, uint64(cfg.Seed))
		if err != nil {
			return err
		}
	}

	trainer, err := core.NewTrainer(
		cfg,
		env,
		net,
		policy.NewBernoulliSampler(uint64(cfg.Seed)),
		policy.NewReturnCalculator(cfg.Gamma),
		extractor,
		logger,
	)
	if err != nil {
		return err
	}
	trainer.AddAnalyzer("reward", analysis.NewRewardAnalyzer(100))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store *history.Store
	var runID string
	if historyDB != "" {
		store = history.NewStore(historyDB)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		runID = uuid.NewString()
		cfgJSON, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		if err := store.BeginRun(ctx, runID, string(cfgJSON)); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		logger.Info().Str("run", runID).Str("db", historyDB).Msg("recording history")

		trainer.OnEpisode(func(r *core.EpisodeResult) {
			if err := store.RecordEpisode(ctx, runID, r); err != nil {
				logger.Error().Err(err).Msg("history record failed")
			}
		})
	}

	progress := util.NewProgressPrinter(time.Second)
	progress.Start()
	trainer.OnEpisode(func(r *core.EpisodeResult) {
		progress.Set(fmt.Sprintf(
			"Episode %d, Steps: %d, Reward: %.1f, Running: %.3f",
			r.Episode, r.Steps, r.Reward, r.RunningReward,
		))
	})

	if checkpointPath != "" && checkpointEvery > 0 {
		trainer.OnEpisode(func(r *core.EpisodeResult) {
			if (r.Episode+1)%checkpointEvery != 0 {
				return
			}
			if err := net.Save(checkpointPath); err != nil {
				logger.Error().Err(err).Msg("checkpoint save failed")
			}
		})
	}

	result, runErr := trainer.Run(ctx, episodes)
	progress.Stop()

	for name, ds := range result.Datasets {
		if err := util.SaveJson(path.Join(savePath, name+".json"), ds); err != nil {
			logger.Error().Err(err).Str("dataset", name).Msg("dataset save failed")
		}
	}
	if checkpointPath != "" {
		if err := net.Save(checkpointPath); err != nil {
			logger.Error().Err(err).Msg("final checkpoint save failed")
		}
	}
	if store != nil {
		if err := store.FinishRun(context.Background(), runID, result); err != nil {
			logger.Error().Err(err).Msg("history finish failed")
		}
	}

	logger.Info().
		Int("episodes", result.CompletedEpisodes).
		Int("timesteps", result.TotalTimeSteps).
		Int("skipped_updates", result.SkippedUpdates).
		Float64("best_reward", result.BestReward).
		Float64("running_reward", result.FinalRunningReward).
		Msg("training finished")

	return runErr
}
