package depth

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/tiff"
)

// FromImage converts a 16-bit (or narrower) grayscale image into a depth
// frame, multiplying each sample by scale. Zero samples stay zero and are
// therefore treated as missing by the flow model.
func FromImage(img image.Image, scale float64) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	for j := 0; j < b.Dy(); j++ {
		for i := 0; i < b.Dx(); i++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+i, b.Min.Y+j)).(color.Gray16)
			f.Set(i, j, float64(g.Y)*scale)
		}
	}
	return f
}

// DecodePNG reads a grayscale PNG depth image.
func DecodePNG(r io.Reader, scale float64) (*Frame, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG depth: %w", err)
	}
	return FromImage(img, scale), nil
}

// DecodeTIFF reads a grayscale TIFF depth image.
func DecodeTIFF(r io.Reader, scale float64) (*Frame, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TIFF depth: %w", err)
	}
	return FromImage(img, scale), nil
}
