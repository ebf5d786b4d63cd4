// Package sequence pairs consecutive trajectory poses with depth frames and
// drives flow synthesis over the resulting pairs.
package sequence

import (
	"fmt"

	"github.com/banshee-data/depthflow/internal/geom"
	"github.com/banshee-data/depthflow/internal/monitoring"
	"github.com/banshee-data/depthflow/internal/pose"
)

// Pair is one unit of work: the camera moves from Prev to Next and the depth
// frame seen from Prev is turned into a flow field.
type Pair struct {
	// Index is the 1-based output sequence number.
	Index     int
	Prev      geom.Mat4x4
	Next      geom.Mat4x4
	PrevFrame int
	NextFrame int
	DepthFile string
}

func (p Pair) String() string {
	return fmt.Sprintf("pair %d (frames %d->%d, %s)", p.Index, p.PrevFrame, p.NextFrame, p.DepthFile)
}

// Window remembers the previous pose while walking a trajectory. It is a
// value type; Advance returns the next window instead of mutating.
type Window struct {
	Prev  geom.Mat4x4
	Frame int
	Index int
}

// NewWindow starts a window at the first trajectory row.
func NewWindow(first pose.Row) Window {
	return Window{Prev: first.Pose, Frame: first.Frame}
}

// Advance moves the window to next and returns the pair spanning the step.
// DepthFile is left empty for the caller to fill.
func (w Window) Advance(next pose.Row) (Window, Pair) {
	p := Pair{
		Index:     w.Index + 1,
		Prev:      w.Prev,
		Next:      next.Pose,
		PrevFrame: w.Frame,
		NextFrame: next.Frame,
	}
	return Window{Prev: next.Pose, Frame: next.Frame, Index: p.Index}, p
}

// Plan builds the pairs for a run. Pair k (starting at 1) spans poses k-1
// and k and uses depth file k-1, so K = min(len(rows)-1, len(depthFiles))
// pairs are produced. Inputs past K are logged and ignored.
func Plan(rows []pose.Row, depthFiles []string) ([]Pair, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("need at least 2 poses, got %d", len(rows))
	}
	if len(depthFiles) == 0 {
		return nil, fmt.Errorf("no depth files given")
	}

	k := min(len(rows)-1, len(depthFiles))
	if extra := len(depthFiles) - k; extra > 0 {
		monitoring.Logf("ignoring %d depth file(s) without a following pose, first is %s", extra, depthFiles[k])
	}
	if extra := len(rows) - 1 - k; extra > 0 {
		monitoring.Logf("ignoring %d pose(s) without a depth file, first is frame %d", extra, rows[k+1].Frame)
	}

	pairs := make([]Pair, 0, k)
	w := NewWindow(rows[0])
	for n := 1; n <= k; n++ {
		var p Pair
		w, p = w.Advance(rows[n])
		p.DepthFile = depthFiles[n-1]
		pairs = append(pairs, p)
	}
	return pairs, nil
}
