// Package flow computes the image motion a rigid camera move induces on a
// depth frame.
package flow

import "fmt"

// Unknown is the component value written for pixels without valid depth.
// Readers of the .flo format treat anything above 1e9 as unknown.
const Unknown = float32(10e9)

// Vector is a per-pixel displacement in pixels. V grows downward.
type Vector struct {
	U, V float32
}

// UnknownVector is the flow stored for pixels without valid depth.
var UnknownVector = Vector{U: Unknown, V: Unknown}

// IsUnknown reports whether v is the missing-depth marker.
func (v Vector) IsUnknown() bool {
	return v == UnknownVector
}

// Field is a dense flow field, row-major from the top-left pixel.
type Field struct {
	Width   int
	Height  int
	Vectors []Vector
}

// NewField allocates a zero field.
func NewField(width, height int) *Field {
	return &Field{
		Width:   width,
		Height:  height,
		Vectors: make([]Vector, width*height),
	}
}

// At returns the vector at column i, row j.
func (f *Field) At(i, j int) Vector {
	return f.Vectors[j*f.Width+i]
}

// Set stores v at column i, row j.
func (f *Field) Set(i, j int, v Vector) {
	f.Vectors[j*f.Width+i] = v
}

// Validate checks that the dimensions agree with the vector count.
func (f *Field) Validate() error {
	if f == nil {
		return fmt.Errorf("flow field is nil")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid flow field size %dx%d", f.Width, f.Height)
	}
	if len(f.Vectors) != f.Width*f.Height {
		return fmt.Errorf("flow field %dx%d has %d vectors, want %d",
			f.Width, f.Height, len(f.Vectors), f.Width*f.Height)
	}
	return nil
}
