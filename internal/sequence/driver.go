package sequence

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/depthflow/internal/depth"
	"github.com/banshee-data/depthflow/internal/flo"
	"github.com/banshee-data/depthflow/internal/flow"
	"github.com/banshee-data/depthflow/internal/fsutil"
	"github.com/banshee-data/depthflow/internal/geom"
	"github.com/banshee-data/depthflow/internal/monitoring"
	"github.com/banshee-data/depthflow/internal/pose"
)

// DefaultFilePattern names output files 00001.flo, 00002.flo, ...
const DefaultFilePattern = "%05d.flo"

// Result describes one written flow file.
type Result struct {
	Pair   Pair
	Output string
	Motion pose.Motion
	Width  int
	Height int
	Stats  flow.Stats
	// Magnitudes is only populated when Driver.KeepMagnitudes is set.
	Magnitudes []float64
}

// Driver turns planned pairs into .flo files.
type Driver struct {
	Source      depth.Source
	FS          fsutil.FileSystem
	Synthesizer *flow.Synthesizer

	OutputDir   string
	FilePattern string
	// Workers above 1 processes pairs concurrently.
	Workers int
	// StrictPoses fails the run on a pose that does not pass pose.Validate.
	// Otherwise problems are only logged.
	StrictPoses    bool
	KeepMagnitudes bool
}

// OutputName returns the file name for pair index k.
func (d *Driver) OutputName(k int) string {
	pattern := d.FilePattern
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	return fmt.Sprintf(pattern, k)
}

// Run processes pairs and returns one Result per pair, in pair order. The
// first error stops the run.
func (d *Driver) Run(ctx context.Context, pairs []Pair) ([]Result, error) {
	if d.Source == nil || d.FS == nil || d.Synthesizer == nil {
		return nil, fmt.Errorf("driver is missing a depth source, filesystem or synthesizer")
	}
	if err := d.checkPoses(pairs); err != nil {
		return nil, err
	}
	if d.OutputDir != "" {
		if err := d.FS.MkdirAll(d.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if d.Workers <= 1 {
		return d.runSequential(ctx, pairs)
	}
	return d.runParallel(ctx, pairs)
}

func (d *Driver) runSequential(ctx context.Context, pairs []Pair) ([]Result, error) {
	results := make([]Result, len(pairs))
	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := d.process(p)
		if err != nil {
			return nil, err
		}
		results[i] = res
		monitoring.Progress(i+1, len(pairs), res.Output)
	}
	return results, nil
}

func (d *Driver) runParallel(ctx context.Context, pairs []Pair) ([]Result, error) {
	results := make([]Result, len(pairs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := d.process(p)
			if err != nil {
				return err
			}
			results[i] = res
			monitoring.Progress(int(done.Add(1)), len(pairs), res.Output)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Driver) process(p Pair) (Result, error) {
	frame, err := d.Source.Read(p.DepthFile)
	if err != nil {
		return Result{}, fmt.Errorf("pair %d: %w", p.Index, err)
	}

	m := pose.Decompose(p.Prev, p.Next)
	field, err := d.Synthesizer.Compute(frame, m)
	if err != nil {
		return Result{}, fmt.Errorf("pair %d: failed to compute flow: %w", p.Index, err)
	}

	out := filepath.Join(d.OutputDir, d.OutputName(p.Index))
	if err := flo.WriteFile(d.FS, out, field); err != nil {
		return Result{}, fmt.Errorf("pair %d: %w", p.Index, err)
	}

	res := Result{
		Pair:   p,
		Output: out,
		Motion: m,
		Width:  field.Width,
		Height: field.Height,
		Stats:  flow.Summarize(field),
	}
	if d.KeepMagnitudes {
		res.Magnitudes = flow.Magnitudes(field)
	}
	return res, nil
}

func (d *Driver) checkPoses(pairs []Pair) error {
	check := func(frame int, m geom.Mat4x4) error {
		vr := pose.Validate(m)
		if vr.Valid {
			return nil
		}
		msg := fmt.Sprintf("pose for frame %d: %s", frame, strings.Join(vr.Issues, "; "))
		if d.StrictPoses {
			return fmt.Errorf("invalid %s", msg)
		}
		monitoring.Logf("warning: %s", msg)
		return nil
	}

	for i, p := range pairs {
		if i == 0 {
			if err := check(p.PrevFrame, p.Prev); err != nil {
				return err
			}
		}
		if err := check(p.NextFrame, p.Next); err != nil {
			return err
		}
	}
	return nil
}
