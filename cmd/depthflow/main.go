// Command depthflow synthesizes ground-truth optical flow (.flo files) from a
// camera trajectory and per-frame depth buffers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/depthflow/internal/catalog"
	"github.com/banshee-data/depthflow/internal/config"
	"github.com/banshee-data/depthflow/internal/depth"
	"github.com/banshee-data/depthflow/internal/flow"
	"github.com/banshee-data/depthflow/internal/fsutil"
	"github.com/banshee-data/depthflow/internal/monitoring"
	"github.com/banshee-data/depthflow/internal/pose"
	"github.com/banshee-data/depthflow/internal/report"
	"github.com/banshee-data/depthflow/internal/sequence"
	"github.com/banshee-data/depthflow/internal/version"
)

var (
	focalLength    = flag.Float64("f", flow.DefaultFocalLength, "Focal length in image-plane units")
	longuetHiggins = flag.Bool("l", false, "Use the Longuet-Higgins convention instead of the negative-z one")
	configPath     = flag.String("config", "", "JSON run configuration; flags given on the command line win")
	outputDir      = flag.String("o", ".", "Directory for the .flo files")
	workers        = flag.Int("workers", 1, "Number of pairs processed concurrently")
	catalogPath    = flag.String("catalog", "", "SQLite catalog to record the run in")
	reportPath     = flag.String("report", "", "Write an HTML run report to this file")
	histogramDir   = flag.String("histograms", "", "Write per-pair flow magnitude histograms to this directory")
	strictPoses    = flag.Bool("strict-poses", false, "Fail on poses that are not rigid transforms")
	showVersion    = flag.Bool("version", false, "Print version information and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <trajectory.csv> <depth> [<depth> ...]\n\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "Depth files may be .pfm, .png, .tif, .tiff, .depth or .depth.gz.\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("depthflow", version.String())
		return
	}
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, setFlags())
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("depthflow: %v", err)
	}
}

// setFlags returns the names of the flags given on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// loadConfig reads the optional config file and overlays the flags in set.
func loadConfig(path string, set map[string]bool) (*config.FlowConfig, error) {
	cfg := &config.FlowConfig{}
	if path != "" {
		var err error
		if cfg, err = config.LoadFlowConfig(path); err != nil {
			return nil, err
		}
	}
	applyFlags(cfg, set)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.FlowConfig, set map[string]bool) {
	if set["f"] {
		cfg.FocalLength = focalLength
	}
	if set["l"] {
		name := flow.NameNegativeZ
		if *longuetHiggins {
			name = flow.NameLonguetHiggins
		}
		cfg.Convention = &name
	}
	if set["o"] {
		cfg.OutputDir = outputDir
	}
	if set["workers"] {
		cfg.Workers = workers
	}
	if set["catalog"] {
		cfg.CatalogPath = catalogPath
	}
	if set["report"] {
		cfg.ReportPath = reportPath
	}
	if set["histograms"] {
		cfg.HistogramDir = histogramDir
	}
	if set["strict-poses"] {
		cfg.StrictPoses = strictPoses
	}
}

// run plans and processes every pair, then writes the optional catalog
// entry, report and histograms.
func run(ctx context.Context, cfg *config.FlowConfig, trajectoryPath string, depthFiles []string) error {
	fs := fsutil.OSFileSystem{}

	rows, err := pose.LoadTrajectory(fs, trajectoryPath)
	if err != nil {
		return err
	}
	pairs, err := sequence.Plan(rows, depthFiles)
	if err != nil {
		return err
	}

	conv := cfg.GetConvention()
	synth := flow.NewSynthesizer(cfg.GetFocalLength(), cfg.GetDepthThreshold(), conv)
	driver := &sequence.Driver{
		Source:         depth.NewFileSource(fs, cfg.GetDepthScale()),
		FS:             fs,
		Synthesizer:    synth,
		OutputDir:      cfg.GetOutputDir(),
		FilePattern:    cfg.GetFilePattern(),
		Workers:        cfg.GetWorkers(),
		StrictPoses:    cfg.GetStrictPoses(),
		KeepMagnitudes: cfg.GetHistogramDir() != "",
	}

	var cat *catalog.Catalog
	var runID string
	if path := cfg.GetCatalogPath(); path != "" {
		if cat, err = catalog.Open(path); err != nil {
			return err
		}
		defer cat.Close()

		params, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode run parameters: %w", err)
		}
		entry := &catalog.Run{
			TrajectoryPath: trajectoryPath,
			OutputDir:      driver.OutputDir,
			Convention:     conv.Name(),
			FocalLength:    synth.FocalLength,
			DepthThreshold: synth.DepthThreshold,
			Workers:        driver.Workers,
			Version:        version.Version,
			ParamsJSON:     params,
		}
		if err := cat.InsertRun(entry); err != nil {
			return err
		}
		runID = entry.RunID
	}

	monitoring.Logf("%d pairs, convention %s, focal length %g", len(pairs), conv.Name(), synth.FocalLength)
	start := time.Now()
	results, err := driver.Run(ctx, pairs)
	if err != nil {
		failRun(cat, runID, err)
		return err
	}
	monitoring.Logf("wrote %d flow files to %s in %s", len(results), driver.OutputDir, time.Since(start).Round(time.Millisecond))

	if cat != nil {
		if err := cat.RecordResults(runID, results); err != nil {
			failRun(cat, runID, err)
			return fmt.Errorf("failed to record run: %w", err)
		}
		monitoring.Logf("recorded run %s in %s", runID, cfg.GetCatalogPath())
	}

	if path := cfg.GetReportPath(); path != "" {
		summary := report.Summary{RunID: runID, Trajectory: trajectoryPath, Convention: conv.Name()}
		if err := report.WriteHTMLFile(fs, path, summary, results); err != nil {
			return err
		}
		monitoring.Logf("wrote report %s", path)
	}

	if dir := cfg.GetHistogramDir(); dir != "" {
		written, err := report.WriteHistograms(fs, dir, results)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %d histograms to %s", len(written), dir)
	}
	return nil
}

// failRun marks runID failed in cat. The run error is what the caller
// reports, so a catalog write failure here is only logged.
func failRun(cat *catalog.Catalog, runID string, cause error) {
	if cat == nil {
		return
	}
	if err := cat.FailRun(runID, cause); err != nil {
		monitoring.Logf("failed to mark run %s failed: %v", runID, err)
	}
}
