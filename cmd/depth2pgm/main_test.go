package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthflow/internal/depth"
	"github.com/banshee-data/depthflow/internal/fsutil"
)

func TestConvert(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	frame := depth.NewFrame(2, 2)
	copy(frame.Samples, []float64{1, 2, 3, depth.NoData})
	var buf bytes.Buffer
	require.NoError(t, depth.EncodePFM(&buf, frame))
	require.NoError(t, fs.WriteFile("in.pfm", buf.Bytes(), 0644))

	require.NoError(t, convert(fs, "in.pfm", "out.pgm", 1, 1e7))

	got, err := fs.ReadFile("out.pgm")
	require.NoError(t, err)
	assert.Equal(t, append([]byte("P5\n2 2\n255\n"), 1, 128, 255, 0), got)
}

func TestConvert_Errors(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	assert.Error(t, convert(fs, "missing.pfm", "out.pgm", 1, 1e7))
	assert.Error(t, convert(fs, "in.exr", "out.pgm", 1, 1e7))
	assert.False(t, fs.Exists("out.pgm"))
}
