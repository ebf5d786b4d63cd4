// Package report renders summaries of a flow run: an HTML page of per-pair
// charts and PNG histograms of flow magnitudes.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/depthflow/internal/fsutil"
	"github.com/banshee-data/depthflow/internal/sequence"
)

// Summary identifies the run a report describes.
type Summary struct {
	RunID      string
	Trajectory string
	Convention string
	// AssetsHost overrides where the page loads echarts from. Empty uses
	// the library default.
	AssetsHost string
}

func (s Summary) subtitle(pairs int) string {
	sub := fmt.Sprintf("trajectory=%s convention=%s pairs=%d", filepath.Base(s.Trajectory), s.Convention, pairs)
	if s.RunID != "" {
		sub += " run=" + s.RunID
	}
	return sub
}

// WriteHTML renders the run page to w.
func WriteHTML(w io.Writer, s Summary, results []sequence.Result) error {
	x := make([]string, len(results))
	mean := make([]opts.LineData, len(results))
	maxMag := make([]opts.LineData, len(results))
	invalid := make([]opts.BarData, len(results))
	tx := make([]opts.LineData, len(results))
	ty := make([]opts.LineData, len(results))
	tz := make([]opts.LineData, len(results))
	for i, r := range results {
		x[i] = strconv.Itoa(r.Pair.Index)
		mean[i] = opts.LineData{Value: r.Stats.MeanMagnitude}
		maxMag[i] = opts.LineData{Value: r.Stats.MaxMagnitude}
		total := r.Stats.Valid + r.Stats.Invalid
		frac := 0.0
		if total > 0 {
			frac = float64(r.Stats.Invalid) / float64(total)
		}
		invalid[i] = opts.BarData{Value: frac}
		t := r.Motion.Translation
		tx[i] = opts.LineData{Value: t.X}
		ty[i] = opts.LineData{Value: t.Y}
		tz[i] = opts.LineData{Value: t.Z}
	}

	initOpts := opts.Initialization{Width: "100%", Height: "420px", AssetsHost: s.AssetsHost}
	xAxis := opts.XAxis{Name: "pair", NameLocation: "middle", NameGap: 25}

	magnitude := charts.NewLine()
	magnitude.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Flow magnitude (px)", Subtitle: s.subtitle(len(results))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(xAxis),
	)
	magnitude.SetXAxis(x).
		AddSeries("mean", mean).
		AddSeries("max", maxMag)

	coverage := charts.NewBar()
	coverage.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Pixels without depth (fraction)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	coverage.SetXAxis(x).AddSeries("invalid", invalid)

	motion := charts.NewLine()
	motion.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Camera translation per pair"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(xAxis),
	)
	motion.SetXAxis(x).
		AddSeries("tx", tx).
		AddSeries("ty", ty).
		AddSeries("tz", tz)

	page := components.NewPage()
	page.PageTitle = "depthflow run"
	if s.AssetsHost != "" {
		page.SetAssetsHost(s.AssetsHost)
	}
	page.AddCharts(magnitude, coverage, motion)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteHTMLFile renders the run page to path on fs.
func WriteHTMLFile(fs fsutil.FileSystem, path string, s Summary, results []sequence.Result) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()
	return WriteHTML(w, s, results)
}
