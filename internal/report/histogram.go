package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/depthflow/internal/fsutil"
	"github.com/banshee-data/depthflow/internal/monitoring"
	"github.com/banshee-data/depthflow/internal/sequence"
)

// HistogramBins is the bin count of magnitude histograms.
const HistogramBins = 40

// HistogramName returns the PNG name for the histogram of a flow file,
// e.g. 00003.flo -> 00003_hist.png.
func HistogramName(output string) string {
	base := filepath.Base(output)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_hist.png"
}

// WriteHistogram draws a histogram of magnitudes as a PNG at path on fs.
func WriteHistogram(fs fsutil.FileSystem, path, title string, magnitudes []float64) (err error) {
	if len(magnitudes) == 0 {
		return fmt.Errorf("no flow magnitudes to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Flow magnitude (px)"
	p.Y.Label.Text = "Pixels"

	hist, err := plotter.NewHist(plotter.Values(magnitudes), HistogramBins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	p.Add(hist)

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}

	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("save histogram %s: %w", path, err)
	}
	return nil
}

// WriteHistograms writes one histogram per result into dir and returns the
// paths written. Results without magnitudes are skipped.
func WriteHistograms(fs fsutil.FileSystem, dir string, results []sequence.Result) ([]string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create histogram directory: %w", err)
	}

	var written []string
	for _, r := range results {
		if len(r.Magnitudes) == 0 {
			monitoring.Logf("no valid flow for pair %d, skipping histogram", r.Pair.Index)
			continue
		}
		path := filepath.Join(dir, HistogramName(r.Output))
		title := fmt.Sprintf("Pair %d (frames %d->%d)", r.Pair.Index, r.Pair.PrevFrame, r.Pair.NextFrame)
		if err := WriteHistogram(fs, path, title, r.Magnitudes); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
