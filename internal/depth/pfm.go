package depth

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// DecodePFM reads a grayscale Portable Float Map ("Pf"). A negative scale
// marks little-endian samples. PFM stores rows bottom-up; the returned frame
// is top-down.
func DecodePFM(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)

	magic, err := pfmToken(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read PFM header: %w", err)
	}
	if magic != "Pf" {
		return nil, fmt.Errorf("unsupported PFM type %q, want single-channel \"Pf\"", magic)
	}

	var header [3]string
	for i := range header {
		if header[i], err = pfmToken(br); err != nil {
			return nil, fmt.Errorf("failed to read PFM header: %w", err)
		}
	}
	width, err := strconv.Atoi(header[0])
	if err != nil || width <= 0 {
		return nil, fmt.Errorf("invalid PFM width %q", header[0])
	}
	height, err := strconv.Atoi(header[1])
	if err != nil || height <= 0 {
		return nil, fmt.Errorf("invalid PFM height %q", header[1])
	}
	if !validSize(int64(width), int64(height)) {
		return nil, fmt.Errorf("invalid PFM size %dx%d", width, height)
	}
	scale, err := strconv.ParseFloat(header[2], 64)
	if err != nil || scale == 0 {
		return nil, fmt.Errorf("invalid PFM scale %q", header[2])
	}

	var order binary.ByteOrder = binary.BigEndian
	if scale < 0 {
		order = binary.LittleEndian
	}

	f := NewFrame(width, height)
	row := make([]byte, 4*width)
	for j := height - 1; j >= 0; j-- {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, fmt.Errorf("failed to read PFM row %d: %w", height-1-j, err)
		}
		for i := 0; i < width; i++ {
			f.Set(i, j, float64(math.Float32frombits(order.Uint32(row[4*i:]))))
		}
	}
	return f, nil
}

// EncodePFM writes f as a little-endian grayscale PFM.
func EncodePFM(w io.Writer, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "Pf\n%d %d\n-1.0\n", f.Width, f.Height); err != nil {
		return fmt.Errorf("failed to write PFM header: %w", err)
	}
	buf := make([]byte, 4)
	for j := f.Height - 1; j >= 0; j-- {
		for i := 0; i < f.Width; i++ {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f.At(i, j))))
			if _, err := bw.Write(buf); err != nil {
				return fmt.Errorf("failed to write PFM data: %w", err)
			}
		}
	}
	return bw.Flush()
}

// pfmToken reads one whitespace-delimited header token. The single
// whitespace byte that ends the scale token is consumed, so the reader is
// positioned at the first sample afterwards.
func pfmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		if c == ' ' || c == '\n' || c == '\r' || c == '\t' {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, c)
	}
}
