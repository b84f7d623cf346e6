package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/omar-florez/reinforcement-learning/core"

	_ "modernc.org/sqlite"
)

// Run is one recorded training run.
type Run struct {
	ID                 string
	StartedAt          time.Time
	FinishedAt         time.Time
	Config             string
	Episodes           int
	BestReward         float64
	FinalRunningReward float64
}

// Store keeps per-run episode results in a sqlite database so runs can be
// compared after the fact.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("history path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			config TEXT NOT NULL,
			episodes INTEGER NOT NULL DEFAULT 0,
			best_reward REAL NOT NULL DEFAULT 0,
			final_running_reward REAL NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL,
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			reward REAL NOT NULL,
			running_reward REAL NOT NULL,
			loss REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		);
	`)
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("history store is not initialized")
	}
	return s.db, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// BeginRun records the start of a training run with its serialized config.
func (s *Store) BeginRun(ctx context.Context, id string, config string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, config) VALUES (?, ?, ?)
	`, id, time.Now().Unix(), config)
	return err
}

func (s *Store) RecordEpisode(ctx context.Context, runID string, r *core.EpisodeResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, episode, steps, reward, running_reward, loss, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode) DO UPDATE SET
			steps = excluded.steps,
			reward = excluded.reward,
			running_reward = excluded.running_reward,
			loss = excluded.loss,
			duration_ms = excluded.duration_ms
	`, runID, r.Episode, r.Steps, r.Reward, r.RunningReward, r.Loss, r.Duration.Milliseconds())
	return err
}

// FinishRun stamps the run with its end time and aggregates.
func (s *Store) FinishRun(ctx context.Context, runID string, result *core.Result) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			episodes = ?,
			best_reward = ?,
			final_running_reward = ?
		WHERE id = ?
	`, time.Now().Unix(), result.CompletedEpisodes, result.BestReward, result.FinalRunningReward, runID)
	return err
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, 0), config, episodes, best_reward, final_running_reward
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		var run Run
		var started, finished int64
		if err := rows.Scan(&run.ID, &started, &finished, &run.Config,
			&run.Episodes, &run.BestReward, &run.FinalRunningReward); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(started, 0)
		if finished != 0 {
			run.FinishedAt = time.Unix(finished, 0)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Episodes returns the recorded results of one run in episode order.
func (s *Store) Episodes(ctx context.Context, runID string) ([]*core.EpisodeResult, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT episode, steps, reward, running_reward, loss, duration_ms
		FROM episodes WHERE run_id = ? ORDER BY episode
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*core.EpisodeResult, 0)
	for rows.Next() {
		r := &core.EpisodeResult{}
		var durationMs int64
		if err := rows.Scan(&r.Episode, &r.Steps, &r.Reward, &r.RunningReward, &r.Loss, &durationMs); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
