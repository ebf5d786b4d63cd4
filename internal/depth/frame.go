// Package depth reads per-frame depth buffers into a dense row-major grid.
//
// Readers map "no sample" pixels to NoData. The flow synthesizer treats
// NoData, non-finite, non-positive and far-plane values alike, so readers
// do not need to agree on a single marker.
package depth

import (
	"fmt"
	"math"
)

// NoData marks a pixel without a valid depth sample. It matches the fill
// value renderers use for empty framebuffer slices.
const NoData = math.MaxFloat32

// MaxPixels caps the frame size a file header may announce.
const MaxPixels = 1 << 28

// validSize reports whether a width x height frame is non-empty and within
// MaxPixels. The product is never formed, so huge headers cannot overflow.
func validSize(width, height int64) bool {
	return width > 0 && height > 0 && width <= MaxPixels/height
}

// Frame is a dense depth buffer. Samples are row-major starting at the
// top-left pixel.
type Frame struct {
	Width   int
	Height  int
	Samples []float64
}

// NewFrame allocates a width x height frame filled with NoData.
func NewFrame(width, height int) *Frame {
	f := &Frame{
		Width:   width,
		Height:  height,
		Samples: make([]float64, width*height),
	}
	for i := range f.Samples {
		f.Samples[i] = NoData
	}
	return f
}

// At returns the depth at column i, row j.
func (f *Frame) At(i, j int) float64 {
	return f.Samples[j*f.Width+i]
}

// Set stores z at column i, row j.
func (f *Frame) Set(i, j int, z float64) {
	f.Samples[j*f.Width+i] = z
}

// Validate checks that the dimensions are positive and agree with the
// sample count.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("depth frame is nil")
	}
	if !validSize(int64(f.Width), int64(f.Height)) {
		return fmt.Errorf("invalid depth frame size %dx%d", f.Width, f.Height)
	}
	if len(f.Samples) != f.Width*f.Height {
		return fmt.Errorf("depth frame %dx%d has %d samples, want %d",
			f.Width, f.Height, len(f.Samples), f.Width*f.Height)
	}
	return nil
}

// Range returns the smallest and largest samples that are finite, positive
// and below limit. ok is false when no sample qualifies.
func (f *Frame) Range(limit float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, z := range f.Samples {
		if math.IsNaN(z) || z <= 0 || z >= limit {
			continue
		}
		ok = true
		lo = math.Min(lo, z)
		hi = math.Max(hi, z)
	}
	return lo, hi, ok
}
