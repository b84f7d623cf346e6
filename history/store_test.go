package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/omar-florez/reinforcement-learning/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.db"))
	err := store.BeginRun(context.Background(), "run-1", "{}")
	assert.Error(t, err)
}

func TestStoreRequiresPath(t *testing.T) {
	store := NewStore("")
	assert.Error(t, store.Init(context.Background()))
}

func TestRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.BeginRun(ctx, "run-1", `{"gamma":0.99}`))

	episodes := []*core.EpisodeResult{
		{Episode: 0, Steps: 120, Reward: -21, RunningReward: -21, Loss: 0.25, Duration: 900 * time.Millisecond},
		{Episode: 1, Steps: 140, Reward: -19, RunningReward: -20.98, Loss: 0.24, Duration: time.Second},
	}
	for _, e := range episodes {
		require.NoError(t, store.RecordEpisode(ctx, "run-1", e))
	}
	require.NoError(t, store.FinishRun(ctx, "run-1", &core.Result{
		CompletedEpisodes:  2,
		BestReward:         -19,
		FinalRunningReward: -20.98,
	}))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, `{"gamma":0.99}`, runs[0].Config)
	assert.Equal(t, 2, runs[0].Episodes)
	assert.Equal(t, -19.0, runs[0].BestReward)
	assert.InDelta(t, -20.98, runs[0].FinalRunningReward, 1e-9)
	assert.False(t, runs[0].StartedAt.IsZero())
	assert.False(t, runs[0].FinishedAt.IsZero())

	got, err := store.Episodes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, episodes[0].Steps, got[0].Steps)
	assert.Equal(t, episodes[1].Reward, got[1].Reward)
	assert.Equal(t, time.Second, got[1].Duration)
}

func TestRecordEpisodeUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.BeginRun(ctx, "run-1", "{}"))
	require.NoError(t, store.RecordEpisode(ctx, "run-1", &core.EpisodeResult{Episode: 0, Reward: 1}))
	require.NoError(t, store.RecordEpisode(ctx, "run-1", &core.EpisodeResult{Episode: 0, Reward: 2}))

	got, err := store.Episodes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Reward)
}

func TestUnfinishedRunHasZeroFinishTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.BeginRun(ctx, "run-1", "{}"))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].FinishedAt.IsZero())
}
