// Package audit runs the train, detect, clean, retrain loop over labeled
// datasets and manages the background service that audits collected
// examples.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/crossval"
	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/report"
)

type PipelineOption func(*Pipeline)

func WithTestRatio(r float64) PipelineOption {
	return func(p *Pipeline) {
		p.opts.testRatio = r
	}
}

func WithFoldsNum(k int) PipelineOption {
	return func(p *Pipeline) {
		p.opts.foldsNum = k
	}
}

func WithSeed(seed int64) PipelineOption {
	return func(p *Pipeline) {
		p.opts.seed = seed
	}
}

func WithCleanMode(m report.CleanMode) PipelineOption {
	return func(p *Pipeline) {
		p.opts.cleanMode = m
	}
}

func WithTopFindings(n int) PipelineOption {
	return func(p *Pipeline) {
		p.opts.topFindings = n
	}
}

type pipelineOptions struct {
	testRatio   float64
	foldsNum    int
	seed        int64
	cleanMode   report.CleanMode
	topFindings int
}

var defaultPipelineOptions = pipelineOptions{
	testRatio:   0.2,
	foldsNum:    5,
	seed:        42,
	cleanMode:   report.CleanModeDrop,
	topFindings: 20,
}

func NewPipeline(clfFn classifier.ProvideFn, detFn detector.ProvideFn, opts ...PipelineOption) (*Pipeline, error) {
	if clfFn == nil {
		return nil, fmt.Errorf("classifier instance is not created")
	}
	if detFn == nil {
		return nil, fmt.Errorf("detector instance is not created")
	}
	p := &Pipeline{clfFn: clfFn, detFn: detFn, opts: defaultPipelineOptions}
	for _, f := range opts {
		f(p)
	}
	if p.opts.testRatio <= 0 || p.opts.testRatio >= 1 {
		return nil, fmt.Errorf("the test ratio selected in the config is out of (0, 1)")
	}
	switch p.opts.cleanMode {
	case report.CleanModeDrop, report.CleanModeRelabel:
	default:
		return nil, fmt.Errorf("unknown clean mode: %s", p.opts.cleanMode)
	}
	return p, nil
}

// Pipeline is the train, detect, clean, retrain loop. Run fits a baseline
// on the train split, finds label issues in the train split from
// out-of-sample probabilities, cleans the flagged examples and refits on
// the cleaned data. Both models are scored on the same held out test split.
type Pipeline struct {
	clfFn classifier.ProvideFn
	detFn detector.ProvideFn
	opts  pipelineOptions
}

func (p *Pipeline) Run(ctx context.Context, d *dataset.Dataset) (*report.Report, error) {
	logger := logging.FromContext(ctx)

	train, test, err := dataset.TrainTestSplit(d, p.opts.testRatio, p.opts.seed)
	if err != nil {
		return nil, fmt.Errorf("unable to split dataset %s: %w", d.Name, err)
	}

	baseAcc, err := p.fitScore(ctx, train, test)
	if err != nil {
		return nil, fmt.Errorf("unable to fit baseline on dataset %s: %w", d.Name, err)
	}
	logger.Infof("audit pipeline: dataset %s baseline accuracy %.4f", d.Name, baseAcc)

	probs, err := crossval.OutOfSample(
		ctx, p.clfFn, train,
		crossval.WithFoldsNum(p.opts.foldsNum), crossval.WithSeed(p.opts.seed),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to compute out-of-sample probabilities: %w", err)
	}

	det, err := p.detFn()
	if err != nil {
		return nil, fmt.Errorf("unable to create detector instance: %w", err)
	}
	findings, err := det.Detect(ctx, train, probs)
	if err != nil {
		return nil, fmt.Errorf("unable to detect label issues in dataset %s: %w", d.Name, err)
	}

	cleaned, issuesNum := p.clean(train, findings)
	logger.Infof("audit pipeline: dataset %s cleaned %d of %d findings with mode %s",
		d.Name, issuesNum, len(findings), p.opts.cleanMode)

	cleanedAcc, err := p.fitScore(ctx, cleaned, test)
	if err != nil {
		return nil, fmt.Errorf("unable to refit on cleaned dataset %s: %w", d.Name, err)
	}
	logger.Infof("audit pipeline: dataset %s cleaned accuracy %.4f", d.Name, cleanedAcc)

	return &report.Report{
		Dataset:          d.Name,
		CreatedAt:        time.Now(),
		Seed:             p.opts.seed,
		CleanMode:        p.opts.cleanMode,
		Rows:             d.Len(),
		TrainRows:        train.Len(),
		TestRows:         test.Len(),
		CandidatesNum:    len(findings),
		IssuesNum:        issuesNum,
		BaselineAccuracy: baseAcc,
		CleanedAccuracy:  cleanedAcc,
		NoiseByClass:     noiseByClass(train, findings),
		Findings:         detector.Rank(findings, p.opts.topFindings),
	}, nil
}

// Findings returns the detector findings of the train split without
// retraining, for callers that only need the issue list.
func (p *Pipeline) Findings(ctx context.Context, d *dataset.Dataset) ([]detector.Finding, error) {
	probs, err := crossval.OutOfSample(
		ctx, p.clfFn, d,
		crossval.WithFoldsNum(p.opts.foldsNum), crossval.WithSeed(p.opts.seed),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to compute out-of-sample probabilities: %w", err)
	}
	det, err := p.detFn()
	if err != nil {
		return nil, fmt.Errorf("unable to create detector instance: %w", err)
	}
	findings, err := det.Detect(ctx, d, probs)
	if err != nil {
		return nil, fmt.Errorf("unable to detect label issues in dataset %s: %w", d.Name, err)
	}
	return findings, nil
}

func (p *Pipeline) fitScore(ctx context.Context, train, test *dataset.Dataset) (float64, error) {
	clf, err := p.clfFn()
	if err != nil {
		return 0, fmt.Errorf("unable to create classifier instance: %w", err)
	}
	if err := clf.Fit(ctx, train); err != nil {
		return 0, err
	}
	probs, err := clf.PredictProba(test.X)
	if err != nil {
		return 0, err
	}
	return classifier.Accuracy(probs, test.Y)
}

// clean removes or relabels the flagged train examples. Findings address
// rows of the source dataset, the train Index maps them back to positions.
func (p *Pipeline) clean(train *dataset.Dataset, findings []detector.Finding) (*dataset.Dataset, int) {
	pos := make(map[int]int, train.Len())
	for i, idx := range train.Index {
		pos[idx] = i
	}

	switch p.opts.cleanMode {
	case report.CleanModeRelabel:
		labels := make(map[int]int)
		for _, f := range findings {
			if !f.Issue {
				continue
			}
			if i, ok := pos[f.Index]; ok {
				labels[i] = f.SuggestedLabel
			}
		}
		return train.Relabel(labels), len(labels)
	default:
		drop := make(map[int]struct{})
		for _, f := range findings {
			if !f.Issue {
				continue
			}
			if i, ok := pos[f.Index]; ok {
				drop[i] = struct{}{}
			}
		}
		return train.Drop(drop), len(drop)
	}
}

func noiseByClass(train *dataset.Dataset, findings []detector.Finding) []report.ClassNoise {
	given := make([]int, train.Classes)
	for _, label := range train.Y {
		given[label]++
	}
	issues := make([]int, train.Classes)
	for _, f := range findings {
		if f.Issue {
			issues[f.GivenLabel]++
		}
	}
	noise := make([]report.ClassNoise, train.Classes)
	for class := range noise {
		rate := 0.0
		if given[class] > 0 {
			rate = float64(issues[class]) / float64(given[class])
		}
		noise[class] = report.ClassNoise{Class: class, Given: given[class], Issues: issues[class], Rate: rate}
	}
	return noise
}
