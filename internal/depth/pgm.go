package depth

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// EncodePGM writes f as an 8-bit binary PGM. Depths inside the valid range
// (see Range) are scaled linearly onto 1..255, near to dark; every other
// pixel is written as 0.
func EncodePGM(w io.Writer, f *Frame, limit float64) error {
	if err := f.Validate(); err != nil {
		return err
	}
	lo, hi, ok := f.Range(limit)

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", f.Width, f.Height); err != nil {
		return fmt.Errorf("failed to write PGM header: %w", err)
	}

	row := make([]byte, f.Width)
	for j := 0; j < f.Height; j++ {
		for i := 0; i < f.Width; i++ {
			z := f.At(i, j)
			switch {
			case !ok || math.IsNaN(z) || z <= 0 || z >= limit:
				row[i] = 0
			case hi == lo:
				row[i] = 255
			default:
				row[i] = byte(1 + math.Round(254*(z-lo)/(hi-lo)))
			}
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("failed to write PGM data: %w", err)
		}
	}
	return bw.Flush()
}
