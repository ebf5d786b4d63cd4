package depth

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/banshee-data/depthflow/internal/fsutil"
)

// Source loads a depth frame by name.
type Source interface {
	Read(name string) (*Frame, error)
}

// FileSource reads depth frames from a filesystem, choosing the decoder from
// the file extension.
type FileSource struct {
	FS fsutil.FileSystem
	// Scale converts integer image samples to scene units. Float formats
	// are not scaled.
	Scale float64
}

// NewFileSource returns a FileSource reading from fs, or from the OS
// filesystem when fs is nil.
func NewFileSource(fs fsutil.FileSystem, scale float64) *FileSource {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &FileSource{FS: fs, Scale: scale}
}

// Supported reports whether name has an extension FileSource can decode.
func Supported(name string) bool {
	_, ok := decoderFor(name, 1)
	return ok
}

// Read decodes the named file.
func (s *FileSource) Read(name string) (*Frame, error) {
	decode, ok := decoderFor(name, s.scale())
	if !ok {
		return nil, fmt.Errorf("read depth %q: unsupported file type", name)
	}

	f, err := s.FS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("read depth %q: %w", name, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(name), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("read depth %q: %w", name, err)
		}
		defer zr.Close()
		r = zr
	}

	frame, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("read depth %q: %w", name, err)
	}
	return frame, nil
}

func (s *FileSource) scale() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

func decoderFor(name string, scale float64) (func(io.Reader) (*Frame, error), bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".gz" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(name, filepath.Ext(name))))
	}

	switch ext {
	case ".pfm":
		return DecodePFM, true
	case ".depth":
		return DecodeRaw, true
	case ".png":
		return func(r io.Reader) (*Frame, error) { return DecodePNG(r, scale) }, true
	case ".tif", ".tiff":
		return func(r io.Reader) (*Frame, error) { return DecodeTIFF(r, scale) }, true
	default:
		return nil, false
	}
}
