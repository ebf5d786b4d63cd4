package depth

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DecodeRaw reads a raw depth dump: little-endian int64 width, int64 height,
// then width*height float32 samples, row-major from the top-left.
func DecodeRaw(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)

	var dims [2]int64
	if err := binary.Read(br, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("failed to read raw depth header: %w", err)
	}
	width, height := dims[0], dims[1]
	if !validSize(width, height) {
		return nil, fmt.Errorf("invalid raw depth size %dx%d", width, height)
	}

	f := NewFrame(int(width), int(height))
	buf := make([]byte, 4)
	for k := range f.Samples {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("failed to read raw depth sample %d: %w", k, err)
		}
		f.Samples[k] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}
	return f, nil
}

// EncodeRaw writes f in the DecodeRaw layout.
func EncodeRaw(w io.Writer, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, [2]int64{int64(f.Width), int64(f.Height)}); err != nil {
		return fmt.Errorf("failed to write raw depth header: %w", err)
	}
	buf := make([]byte, 4)
	for _, z := range f.Samples {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(z)))
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("failed to write raw depth sample: %w", err)
		}
	}
	return bw.Flush()
}
