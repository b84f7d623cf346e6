package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"

	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/omar-florez/reinforcement-learning/envs/pong"
	"github.com/omar-florez/reinforcement-learning/features"
	"github.com/omar-florez/reinforcement-learning/policy"
)

func PlayCommand() *cobra.Command {
	var episodes int
	var render bool
	var frameDelay time.Duration

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run greedy rollouts from a checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(episodes, render, frameDelay)
		},
	}
	cmd.Flags().IntVar(&episodes, "episodes", 1, "Number of episodes to play")
	cmd.Flags().BoolVar(&render, "render", true, "Render the court to the terminal")
	cmd.Flags().DurationVar(&frameDelay, "frame-delay", 30*time.Millisecond, "Delay between rendered frames")
	return cmd
}

func runPlay(episodes int, render bool, frameDelay time.Duration) error {
	logger := newLogger()
	if checkpointPath == "" {
		return fmt.Errorf("--checkpoint is required")
	}

	net, err := policy.Load(checkpointPath, learningRate, policy.Analytic{})
	if err != nil {
		return err
	}
	extractor := features.NewExtractor()
	if extractor.Size() != net.InputSize() {
		return fmt.Errorf("%w: features=%d model=%d",
			core.ErrDimensionMismatch, extractor.Size(), net.InputSize())
	}

	env := pong.New(pong.Config{PointsPerGame: pointsPerGame, Seed: seed})
	sampler := policy.GreedySampler{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var renderWriter *uilive.Writer
	if render {
		renderWriter = uilive.New()
	}

	for episode := 0; episode < episodes; episode++ {
		extractor.Reset()
		frame, err := env.Reset()
		if err != nil {
			return fmt.Errorf("environment reset: %w", err)
		}

		steps := 0
		total := 0.0
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			probability, _, err := net.Forward(extractor.Extract(frame))
			if err != nil {
				return err
			}
			action := sampler.Sample(probability)

			var reward float64
			var done bool
			frame, reward, done, err = env.Step(action)
			if err != nil {
				return fmt.Errorf("environment step: %w", err)
			}
			total += reward
			steps++

			if render {
				env.Render(renderWriter)
				renderWriter.Flush()
				time.Sleep(frameDelay)
			}
			if done {
				break
			}
		}

		agent, opponent := env.Scores()
		logger.Info().
			Int("episode", episode).
			Int("steps", steps).
			Float64("reward", total).
			Str("score", fmt.Sprintf("%d:%d", agent, opponent)).
			Msg("episode played")
	}
	return nil
}
