package flow

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a flow field. Magnitudes cover valid pixels only.
type Stats struct {
	Valid         int     `json:"valid"`
	Invalid       int     `json:"invalid"`
	MeanMagnitude float64 `json:"mean_magnitude"`
	StdMagnitude  float64 `json:"std_magnitude"`
	MaxMagnitude  float64 `json:"max_magnitude"`
}

// Magnitudes returns the flow length of every valid pixel.
func Magnitudes(f *Field) []float64 {
	mags := make([]float64, 0, len(f.Vectors))
	for _, v := range f.Vectors {
		if v.IsUnknown() {
			continue
		}
		mags = append(mags, math.Hypot(float64(v.U), float64(v.V)))
	}
	return mags
}

// Summarize computes Stats for f.
func Summarize(f *Field) Stats {
	mags := Magnitudes(f)
	s := Stats{
		Valid:   len(mags),
		Invalid: len(f.Vectors) - len(mags),
	}
	switch len(mags) {
	case 0:
		return s
	case 1:
		s.MeanMagnitude = mags[0]
	default:
		s.MeanMagnitude, s.StdMagnitude = stat.MeanStdDev(mags, nil)
	}
	s.MaxMagnitude = floats.Max(mags)
	return s
}
