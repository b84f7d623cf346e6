package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/omar-florez/reinforcement-learning/history"
	"gonum.org/v1/gonum/stat"
)

func HistoryCommand() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded training runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(runID)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Show per-episode detail for one run")
	return cmd
}

func runHistory(runID string) error {
	if historyDB == "" {
		return fmt.Errorf("--history-db is required")
	}

	ctx := context.Background()
	store := history.NewStore(historyDB)
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if runID != "" {
		episodes, err := store.Episodes(ctx, runID)
		if err != nil {
			return err
		}
		rewards := make([]float64, len(episodes))
		fmt.Fprintln(w, "EPISODE\tSTEPS\tREWARD\tRUNNING\tLOSS")
		for i, e := range episodes {
			rewards[i] = e.Reward
			fmt.Fprintf(w, "%d\t%d\t%.1f\t%.3f\t%.4f\n",
				e.Episode, e.Steps, e.Reward, e.RunningReward, e.Loss)
		}
		if len(rewards) > 0 {
			fmt.Fprintf(w, "\t\tmean %.3f\t\t\n", stat.Mean(rewards, nil))
		}
		return nil
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tSTARTED\tEPISODES\tBEST\tRUNNING")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.3f\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Episodes, r.BestReward, r.FinalRunningReward)
	}
	return nil
}
