// Package flo reads and writes the Middlebury .flo optical flow format:
// the tag "PIEH", int32 width and height, then float32 (u, v) pairs
// row-major from the top-left pixel, all little-endian.
package flo

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/depthflow/internal/flow"
	"github.com/banshee-data/depthflow/internal/fsutil"
)

// Magic is the file tag. Read as a little-endian float32 it is 202021.25,
// which readers use to detect byte-order problems.
const Magic = "PIEH"

// HeaderSize is the byte offset of the first flow vector.
const HeaderSize = 12

// UnknownThreshold is the component magnitude above which readers treat a
// vector as unknown.
const UnknownThreshold = 1e9

// maxPixels bounds the allocation a header can request.
const maxPixels = 1 << 28

// Write serializes f. Values are written unmodified.
func Write(w io.Writer, f *flow.Field) error {
	if err := f.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, HeaderSize)
	copy(header, Magic)
	binary.LittleEndian.PutUint32(header[4:], uint32(int32(f.Width)))
	binary.LittleEndian.PutUint32(header[8:], uint32(int32(f.Height)))
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("failed to write flo header: %w", err)
	}

	row := make([]byte, 8*f.Width)
	for j := 0; j < f.Height; j++ {
		for i, v := range f.Vectors[j*f.Width : (j+1)*f.Width] {
			binary.LittleEndian.PutUint32(row[8*i:], math.Float32bits(v.U))
			binary.LittleEndian.PutUint32(row[8*i+4:], math.Float32bits(v.V))
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("failed to write flo row %d: %w", j, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write flo data: %w", err)
	}
	return nil
}

// WriteFile writes f to path on fs. Create, write and close failures are
// all returned.
func WriteFile(fs fsutil.FileSystem, path string, f *flow.Field) (err error) {
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := Write(w, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Read parses a .flo stream.
func Read(r io.Reader) (*flow.Field, error) {
	br := bufio.NewReader(r)

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("failed to read flo header: %w", err)
	}
	if string(header[:4]) != Magic {
		return nil, fmt.Errorf("bad flo tag %q, want %q", header[:4], Magic)
	}
	width := int32(binary.LittleEndian.Uint32(header[4:]))
	height := int32(binary.LittleEndian.Uint32(header[8:]))
	if width <= 0 || height <= 0 || int64(width)*int64(height) > maxPixels {
		return nil, fmt.Errorf("invalid flo size %dx%d", width, height)
	}

	f := flow.NewField(int(width), int(height))
	row := make([]byte, 8*f.Width)
	for j := 0; j < f.Height; j++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, fmt.Errorf("failed to read flo row %d: %w", j, err)
		}
		for i := 0; i < f.Width; i++ {
			f.Set(i, j, flow.Vector{
				U: math.Float32frombits(binary.LittleEndian.Uint32(row[8*i:])),
				V: math.Float32frombits(binary.LittleEndian.Uint32(row[8*i+4:])),
			})
		}
	}
	return f, nil
}

// ReadFile reads a .flo file from fs.
func ReadFile(fs fsutil.FileSystem, path string) (*flow.Field, error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	f, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// IsUnknown reports whether a reader should ignore v.
func IsUnknown(v flow.Vector) bool {
	return math.Abs(float64(v.U)) > UnknownThreshold || math.Abs(float64(v.V)) > UnknownThreshold
}
