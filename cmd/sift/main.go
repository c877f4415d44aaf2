// Command sift runs the label-quality pipeline offline: load a dataset,
// train, detect mislabeled examples, clean, retrain and print the report.
// Pipelines are described in a toml manifest.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-sift/sift/internal/audit"
	"github.com/go-sift/sift/internal/buildinfo"
	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/internal/loader"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/report"
	"github.com/go-sift/sift/internal/setup"
	"github.com/go-sift/sift/internal/shutdown"
	kenvconfig "github.com/kelseyhightower/envconfig"
	"github.com/sethvargo/go-envconfig"
)

type cliConfig struct {
	ManifestPath string `env:"SIFT_PIPELINE_FILE,default=pipeline.toml"`
	Debug        bool   `env:"SIFT_DEBUG,default=false"`
}

type manifest struct {
	Pipelines []pipelineSpec `toml:"pipeline"`
}

type pipelineSpec struct {
	Name         string  `toml:"name"`
	Source       string  `toml:"source"`
	Format       string  `toml:"format"`
	LabelColumn  string  `toml:"label_column"`
	Scaling      string  `toml:"scaling"`
	LabelsSource string  `toml:"labels_source"`
	Snapshot     string  `toml:"snapshot"`
	Classifier   string  `toml:"classifier"`
	Detector     string  `toml:"detector"`
	TestRatio    float64 `toml:"test_ratio"`
	FoldsNum     int     `toml:"folds_num"`
	Seed         int64   `toml:"seed"`
	CleanMode    string  `toml:"clean_mode"`
	TopFindings  int     `toml:"top_findings"`
	NoiseRate    float64 `toml:"noise_rate"`
	NoiseType    string  `toml:"noise_type"`
	NoiseSeed    int64   `toml:"noise_seed"`
}

func main() {
	_, _ = fmt.Fprintf(os.Stdout, "%s %s\n", buildinfo.Info.Name(), buildinfo.Info.Tag())

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context) error {
	var cfg cliConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	if len(os.Args) > 1 {
		cfg.ManifestPath = os.Args[1]
	}

	var m manifest
	if _, err := toml.DecodeFile(cfg.ManifestPath, &m); err != nil {
		return fmt.Errorf("unable decode manifest %s: %w", cfg.ManifestPath, err)
	}
	if len(m.Pipelines) == 0 {
		return fmt.Errorf("manifest %s describes no pipelines", cfg.ManifestPath)
	}

	for _, spec := range m.Pipelines {
		rep, err := runPipeline(ctx, spec, cfg.Debug)
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", spec.Name, err)
		}
		_, _ = fmt.Fprintln(os.Stdout, rep.Render())
	}
	return nil
}

func runPipeline(ctx context.Context, spec pipelineSpec, debug bool) (*report.Report, error) {
	logger := logging.FromContext(ctx)

	d, loadErr := loadDataset(ctx, spec)
	if loadErr != nil {
		return nil, loadErr
	}
	logger.Infof("loaded dataset %s: %d rows, %d features, %d classes", d.Name, d.Len(), d.Dims(), d.Classes)

	var flips map[int]int
	if spec.NoiseRate > 0 {
		var err error
		flips, err = loader.InjectNoise(d, spec.NoiseRate, loader.NoiseType(spec.NoiseType), spec.NoiseSeed)
		if err != nil {
			return nil, fmt.Errorf("unable inject label noise: %w", err)
		}
		logger.Infof("injected %s noise into %d of %d labels", spec.NoiseType, len(flips), d.Len())
	}

	clfCfg := classifier.Config{}
	if err := kenvconfig.Process("", &clfCfg); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	if spec.Classifier != "" {
		clfCfg.Type = classifier.AlgType(spec.Classifier)
	}
	detCfg := detector.Config{}
	if err := kenvconfig.Process("", &detCfg); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	if spec.Detector != "" {
		detCfg.Type = detector.AlgType(spec.Detector)
	}

	clfFn, err := setup.ProvideClassifierFor(&clfCfg)
	if err != nil {
		return nil, fmt.Errorf("unable create classifier provide function: %v", err)
	}
	detFn, err := setup.ProvideDetectorFor(&detCfg)
	if err != nil {
		return nil, fmt.Errorf("unable create detector provide function: %v", err)
	}

	pipeline, err := audit.NewPipeline(clfFn, detFn, pipelineOptions(spec)...)
	if err != nil {
		return nil, fmt.Errorf("unable create pipeline instance: %v", err)
	}

	rep, err := pipeline.Run(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("unable run pipeline: %w", err)
	}

	if len(flips) > 0 {
		recovered := 0
		for _, f := range rep.Findings {
			if !f.Issue {
				continue
			}
			if _, ok := flips[f.Index]; ok {
				recovered++
			}
		}
		logger.Infof("detector recovered %d of %d injected flips", recovered, len(flips))
	}
	if debug {
		spew.Fdump(os.Stderr, rep)
	}
	return rep, nil
}

// pipelineOptions turns the set fields of a manifest entry into pipeline
// options, so omitted fields keep the pipeline defaults.
func pipelineOptions(spec pipelineSpec) []audit.PipelineOption {
	var opts []audit.PipelineOption
	if spec.TestRatio > 0 {
		opts = append(opts, audit.WithTestRatio(spec.TestRatio))
	}
	if spec.FoldsNum > 0 {
		opts = append(opts, audit.WithFoldsNum(spec.FoldsNum))
	}
	if spec.Seed != 0 {
		opts = append(opts, audit.WithSeed(spec.Seed))
	}
	if spec.CleanMode != "" {
		opts = append(opts, audit.WithCleanMode(report.CleanMode(spec.CleanMode)))
	}
	if spec.TopFindings > 0 {
		opts = append(opts, audit.WithTopFindings(spec.TopFindings))
	}
	return opts
}

func loadDataset(ctx context.Context, spec pipelineSpec) (*dataset.Dataset, error) {
	if spec.Snapshot != "" {
		if snap, err := loader.LoadSnapshot(spec.Snapshot); err == nil {
			return snap, nil
		}
	}

	opts := []loader.Option{loader.WithName(spec.Name)}
	if spec.LabelColumn != "" {
		opts = append(opts, loader.WithLabelColumn(spec.LabelColumn))
	}
	if spec.Scaling != "" {
		opts = append(opts, loader.WithScaling(loader.ScalingType(spec.Scaling)))
	}
	if spec.LabelsSource != "" {
		opts = append(opts, loader.WithLabelsSource(spec.LabelsSource))
	}
	l, err := loader.For(loader.FormatType(spec.Format), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable create loader: %v", err)
	}
	d, err := l.Load(ctx, spec.Source)
	if err != nil {
		return nil, fmt.Errorf("unable load %s: %w", spec.Source, err)
	}

	if spec.Snapshot != "" {
		if err := loader.SaveSnapshot(spec.Snapshot, d); err != nil {
			logging.FromContext(ctx).Errorf("unable save snapshot %s: %v", spec.Snapshot, err)
		}
	}
	return d, nil
}
