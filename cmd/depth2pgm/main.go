// Command depth2pgm renders a depth frame as an 8-bit grayscale PGM for quick
// inspection.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/depthflow/internal/depth"
	"github.com/banshee-data/depthflow/internal/flow"
	"github.com/banshee-data/depthflow/internal/fsutil"
)

var (
	scale = flag.Float64("scale", 1, "Scene units per integer sample for .png and .tif input")
	limit = flag.Float64("limit", flow.DefaultDepthThreshold, "Depths at or beyond this value are drawn black")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <depth> <out.pgm>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := convert(fsutil.OSFileSystem{}, flag.Arg(0), flag.Arg(1), *scale, *limit); err != nil {
		log.Fatalf("depth2pgm: %v", err)
	}
}

func convert(fs fsutil.FileSystem, in, out string, scale, limit float64) (err error) {
	src := depth.NewFileSource(fs, scale)
	frame, err := src.Read(in)
	if err != nil {
		return err
	}

	w, err := fs.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", out, cerr)
		}
	}()

	if err := depth.EncodePGM(w, frame, limit); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	return nil
}
