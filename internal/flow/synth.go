package flow

import (
	"fmt"
	"math"

	"github.com/banshee-data/depthflow/internal/depth"
	"github.com/banshee-data/depthflow/internal/pose"
)

// Defaults for a Blender camera: 32mm sensor width, 35mm lens, which puts
// the focal length at 1 / (16/35) on an image plane spanning [-1, 1].
const (
	DefaultFocalLength    = 2.1875
	DefaultDepthThreshold = 1e7
)

// Synthesizer turns a depth frame and a relative camera motion into a flow
// field.
type Synthesizer struct {
	FocalLength float64
	// DepthThreshold marks depths at or beyond it as background.
	DepthThreshold float64
	Convention     Convention
}

// NewSynthesizer returns a Synthesizer using the given parameters.
func NewSynthesizer(focalLength, depthThreshold float64, c Convention) *Synthesizer {
	return &Synthesizer{
		FocalLength:    focalLength,
		DepthThreshold: depthThreshold,
		Convention:     c,
	}
}

// ValidDepth reports whether z is a usable depth sample.
func (s *Synthesizer) ValidDepth(z float64) bool {
	return !math.IsNaN(z) && !math.IsInf(z, 0) && z > 0 && z < s.DepthThreshold
}

// ImagePlane maps pixel (i, j) of a width x height image onto the image
// plane, which spans [-1, 1] horizontally. The wider side is assumed to be
// horizontal.
func ImagePlane(width, height, i, j int) (x, y, pixelSize float64) {
	pixelSize = 2.0 / float64(width)
	aspect := float64(width) / float64(height)
	x = -1.0 + float64(i)*pixelSize
	y = 1.0/aspect - float64(j)*pixelSize
	return x, y, pixelSize
}

// Compute evaluates the flow for every pixel of frame. Pixels without valid
// depth get UnknownVector.
func (s *Synthesizer) Compute(frame *depth.Frame, m pose.Motion) (*Field, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if s.Convention == nil {
		return nil, fmt.Errorf("flow convention is not set")
	}
	f := s.FocalLength
	if !(f > 0) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid focal length %v", f)
	}

	field := NewField(frame.Width, frame.Height)
	for j := 0; j < frame.Height; j++ {
		for i := 0; i < frame.Width; i++ {
			z := frame.At(i, j)
			if !s.ValidDepth(z) {
				field.Set(i, j, UnknownVector)
				continue
			}

			x, y, pixelSize := ImagePlane(frame.Width, frame.Height, i, j)

			// The stored depth runs along the pixel ray; project it onto
			// the optical axis.
			d := math.Sqrt(f*f + x*x + y*y)
			zAxis := (z / d) * f
			if zAxis == 0 {
				// Subnormal depths underflow here.
				field.Set(i, j, UnknownVector)
				continue
			}

			u, v := s.Convention.Flow(x, y, zAxis, f, m)
			u /= pixelSize
			v /= pixelSize

			// .flo rows grow downward.
			v *= -1.0

			field.Set(i, j, Vector{U: float32(u), V: float32(v)})
		}
	}
	return field, nil
}
