package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthflow/internal/flow"
	"github.com/banshee-data/depthflow/internal/geom"
	"github.com/banshee-data/depthflow/internal/pose"
	"github.com/banshee-data/depthflow/internal/sequence"
)

func openTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, path
}

func sampleRun() *Run {
	return &Run{
		TrajectoryPath: "traj.csv",
		OutputDir:      "out",
		Convention:     flow.NameNegativeZ,
		FocalLength:    flow.DefaultFocalLength,
		DepthThreshold: flow.DefaultDepthThreshold,
		Workers:        2,
		Version:        "dev",
		ParamsJSON:     json.RawMessage(`{"workers":2}`),
	}
}

func sampleResult(k int) sequence.Result {
	return sequence.Result{
		Pair: sequence.Pair{
			Index:     k,
			PrevFrame: k - 1,
			NextFrame: k,
			DepthFile: "depth.pfm",
		},
		Output: filepath.Join("out", fmt.Sprintf("%05d.flo", k)),
		Motion: pose.Motion{
			Translation: geom.Vec3{X: 0.1 * float64(k), Y: 0, Z: -0.2},
			Rotation:    geom.Vec3{X: 0, Y: 0.01, Z: 0},
		},
		Width:  64,
		Height: 48,
		Stats: flow.Stats{
			Valid:         3000,
			Invalid:       72,
			MeanMagnitude: 1.5 * float64(k),
			StdMagnitude:  0.25,
			MaxMagnitude:  4,
		},
	}
}

func TestOpen_MigratesSchema(t *testing.T) {
	t.Parallel()

	c, path := openTestCatalog(t)
	version, dirty, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Reopening an up-to-date catalog is a no-op.
	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()
	version, _, err = c2.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestInsertAndGetRun(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	run := sampleRun()
	require.NoError(t, c.InsertRun(run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.StartedAt)
	assert.Equal(t, StatusRunning, run.Status)

	got, err := c.GetRun(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}

	_, err = c.GetRun("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestRecordResults(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	run := sampleRun()
	require.NoError(t, c.InsertRun(run))

	results := []sequence.Result{sampleResult(1), sampleResult(2), sampleResult(3)}
	require.NoError(t, c.RecordResults(run.RunID, results))

	pairs, err := c.ListPairs(run.RunID)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	for i, p := range pairs {
		assert.Equal(t, PairStatsFromResult(run.RunID, results[i]), p)
	}
	assert.Equal(t, [3]float64{0.2, 0, -0.2}, pairs[1].Translation)

	got, err := c.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.PairCount)
	assert.NotZero(t, got.FinishedAt)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.Error)
}

func TestInsertPairs_RollsBack(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	run := sampleRun()
	require.NoError(t, c.InsertRun(run))

	dup := PairStatsFromResult(run.RunID, sampleResult(1))
	err := c.InsertPairs([]PairStats{dup, dup})
	require.Error(t, err)

	pairs, err := c.ListPairs(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestInsertPairs_UnknownRun(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	err := c.InsertPairs([]PairStats{PairStatsFromResult("no-such-run", sampleResult(1))})
	assert.Error(t, err)
}

func TestFinishRun_Missing(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	assert.ErrorContains(t, c.FinishRun("missing", 1), "not found")
	assert.ErrorContains(t, c.FailRun("missing", errors.New("boom")), "not found")
}

func TestFailRun(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	run := sampleRun()
	require.NoError(t, c.InsertRun(run))

	cause := fmt.Errorf("pair 2: %w", errors.New("read depth \"b.pfm\": no such file"))
	require.NoError(t, c.FailRun(run.RunID, cause))

	got, err := c.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, cause.Error(), got.Error)
	assert.NotZero(t, got.FinishedAt)
	assert.Zero(t, got.PairCount)

	pairs, err := c.ListPairs(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	c, _ := openTestCatalog(t)
	for i := 1; i <= 3; i++ {
		run := sampleRun()
		run.StartedAt = int64(i) * 1000
		require.NoError(t, c.InsertRun(run))
	}

	runs, err := c.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(3000), runs[0].StartedAt)
	assert.Equal(t, int64(2000), runs[1].StartedAt)
}
