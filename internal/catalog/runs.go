package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/depthflow/internal/sequence"
)

// Run states stored in flow_runs.status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run describes one invocation of the flow tool.
type Run struct {
	RunID          string          `json:"run_id"`
	TrajectoryPath string          `json:"trajectory_path"`
	OutputDir      string          `json:"output_dir"`
	Convention     string          `json:"convention"`
	FocalLength    float64         `json:"focal_length"`
	DepthThreshold float64         `json:"depth_threshold"`
	Workers        int             `json:"workers"`
	PairCount      int             `json:"pair_count"`
	Version        string          `json:"version,omitempty"`
	ParamsJSON     json.RawMessage `json:"params_json,omitempty"`
	StartedAt      int64           `json:"started_at"`
	FinishedAt     int64           `json:"finished_at,omitempty"`
	Status         string          `json:"status"`
	Error          string          `json:"error,omitempty"`
}

// PairStats is the catalog row for one written flow file.
type PairStats struct {
	RunID         string     `json:"run_id"`
	PairIndex     int        `json:"pair_index"`
	PrevFrame     int        `json:"prev_frame"`
	NextFrame     int        `json:"next_frame"`
	DepthFile     string     `json:"depth_file"`
	OutputPath    string     `json:"output_path"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	ValidPixels   int        `json:"valid_pixels"`
	InvalidPixels int        `json:"invalid_pixels"`
	MeanMagnitude float64    `json:"mean_magnitude"`
	StdMagnitude  float64    `json:"std_magnitude"`
	MaxMagnitude  float64    `json:"max_magnitude"`
	Translation   [3]float64 `json:"translation"`
	Rotation      [3]float64 `json:"rotation"`
}

// PairStatsFromResult converts a driver result into a catalog row.
func PairStatsFromResult(runID string, r sequence.Result) PairStats {
	t, rot := r.Motion.Translation, r.Motion.Rotation
	return PairStats{
		RunID:         runID,
		PairIndex:     r.Pair.Index,
		PrevFrame:     r.Pair.PrevFrame,
		NextFrame:     r.Pair.NextFrame,
		DepthFile:     r.Pair.DepthFile,
		OutputPath:    r.Output,
		Width:         r.Width,
		Height:        r.Height,
		ValidPixels:   r.Stats.Valid,
		InvalidPixels: r.Stats.Invalid,
		MeanMagnitude: r.Stats.MeanMagnitude,
		StdMagnitude:  r.Stats.StdMagnitude,
		MaxMagnitude:  r.Stats.MaxMagnitude,
		Translation:   [3]float64{t.X, t.Y, t.Z},
		Rotation:      [3]float64{rot.X, rot.Y, rot.Z},
	}
}

// InsertRun persists run. If RunID is empty, a UUID is generated.
func (c *Catalog) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().UnixNano()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}

	var params interface{}
	if len(run.ParamsJSON) > 0 {
		params = string(run.ParamsJSON)
	}
	var finished interface{}
	if run.FinishedAt != 0 {
		finished = run.FinishedAt
	}
	var runErr interface{}
	if run.Error != "" {
		runErr = run.Error
	}

	_, err := c.db.Exec(`
		INSERT INTO flow_runs (
			run_id, trajectory_path, output_dir, convention, focal_length,
			depth_threshold, workers, pair_count, version, params_json,
			started_at, finished_at, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.TrajectoryPath, run.OutputDir, run.Convention, run.FocalLength,
		run.DepthThreshold, run.Workers, run.PairCount, run.Version, params,
		run.StartedAt, finished, run.Status, runErr,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the finish time and pair count of a run and marks it
// completed.
func (c *Catalog) FinishRun(runID string, pairCount int) error {
	res, err := c.db.Exec(`
		UPDATE flow_runs SET finished_at = ?, pair_count = ?, status = ?, error_message = NULL
		WHERE run_id = ?`, time.Now().UnixNano(), pairCount, StatusCompleted, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// FailRun stamps the finish time of a run that stopped early and keeps the
// error that stopped it.
func (c *Catalog) FailRun(runID string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	res, err := c.db.Exec(`
		UPDATE flow_runs SET finished_at = ?, status = ?, error_message = ?
		WHERE run_id = ?`, time.Now().UnixNano(), StatusFailed, msg, runID)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("fail run: run %s not found", runID)
	}
	return nil
}

// InsertPairs stores the pair rows of a run in a single transaction.
func (c *Catalog) InsertPairs(pairs []PairStats) (err error) {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO flow_pairs (
			run_id, pair_index, prev_frame, next_frame, depth_file, output_path,
			width, height, valid_pixels, invalid_pixels,
			mean_magnitude, std_magnitude, max_magnitude,
			tx, ty, tz, rx, ry, rz
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pair insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		_, err = stmt.Exec(
			p.RunID, p.PairIndex, p.PrevFrame, p.NextFrame, p.DepthFile, p.OutputPath,
			p.Width, p.Height, p.ValidPixels, p.InvalidPixels,
			p.MeanMagnitude, p.StdMagnitude, p.MaxMagnitude,
			p.Translation[0], p.Translation[1], p.Translation[2],
			p.Rotation[0], p.Rotation[1], p.Rotation[2],
		)
		if err != nil {
			return fmt.Errorf("insert pair %d: %w", p.PairIndex, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit pairs: %w", err)
	}
	return nil
}

// RecordResults stores the driver results under runID and marks the run
// finished.
func (c *Catalog) RecordResults(runID string, results []sequence.Result) error {
	pairs := make([]PairStats, len(results))
	for i, r := range results {
		pairs[i] = PairStatsFromResult(runID, r)
	}
	if err := c.InsertPairs(pairs); err != nil {
		return err
	}
	return c.FinishRun(runID, len(results))
}

const runColumns = `run_id, trajectory_path, output_dir, convention, focal_length,
	depth_threshold, workers, pair_count, version, params_json,
	started_at, finished_at, status, error_message`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var version, params, runErr sql.NullString
	var finished sql.NullInt64
	err := s.Scan(
		&r.RunID, &r.TrajectoryPath, &r.OutputDir, &r.Convention, &r.FocalLength,
		&r.DepthThreshold, &r.Workers, &r.PairCount, &version, &params,
		&r.StartedAt, &finished, &r.Status, &runErr,
	)
	if err != nil {
		return nil, err
	}
	r.Version = version.String
	if params.Valid && params.String != "" {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	r.FinishedAt = finished.Int64
	r.Error = runErr.String
	return &r, nil
}

// GetRun returns a run by ID.
func (c *Catalog) GetRun(runID string) (*Run, error) {
	row := c.db.QueryRow(`SELECT `+runColumns+` FROM flow_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first, at most limit of them.
func (c *Catalog) ListRuns(limit int) ([]*Run, error) {
	rows, err := c.db.Query(`SELECT `+runColumns+` FROM flow_runs
		ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListPairs returns the pair rows of a run in pair order.
func (c *Catalog) ListPairs(runID string) ([]PairStats, error) {
	rows, err := c.db.Query(`
		SELECT run_id, pair_index, prev_frame, next_frame, depth_file, output_path,
		       width, height, valid_pixels, invalid_pixels,
		       mean_magnitude, std_magnitude, max_magnitude,
		       tx, ty, tz, rx, ry, rz
		FROM flow_pairs
		WHERE run_id = ?
		ORDER BY pair_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []PairStats
	for rows.Next() {
		var p PairStats
		if err := rows.Scan(
			&p.RunID, &p.PairIndex, &p.PrevFrame, &p.NextFrame, &p.DepthFile, &p.OutputPath,
			&p.Width, &p.Height, &p.ValidPixels, &p.InvalidPixels,
			&p.MeanMagnitude, &p.StdMagnitude, &p.MaxMagnitude,
			&p.Translation[0], &p.Translation[1], &p.Translation[2],
			&p.Rotation[0], &p.Rotation[1], &p.Rotation[2],
		); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
