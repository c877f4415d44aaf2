package audit

import (
	"context"
	"testing"
	"time"

	"github.com/go-sift/sift/internal/detector"
	exampleDb "github.com/go-sift/sift/internal/example/database"
	"github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/pkg/iqueue"
	"github.com/go-sift/sift/pkg/math/vector"
)

func TestApplyFindings(t *testing.T) {
	examples := []model.Example{
		model.NewExample("test-data", vector.V{0, 0}, 0, time.Now(), nil),
		model.NewExample("test-data", vector.V{1, 1}, 0, time.Now(), nil),
		model.NewExample("test-data", vector.V{5, 5}, 1, time.Now(), nil),
	}
	findings := []detector.Finding{
		{Index: 1, GivenLabel: 0, SuggestedLabel: 1, Score: 0.1, Issue: true},
		{Index: 2, GivenLabel: 1, SuggestedLabel: 0, Score: 0.6, Issue: false},
	}
	audited, issues := applyFindings(examples, findings)

	if len(audited) != 3 {
		t.Fatalf("audited examples num got: %d, expected: %d", len(audited), 3)
	}
	for i, e := range audited {
		if !e.IsAudited() {
			t.Errorf("example %d status got: %v, expected audited", i, e.Status)
		}
	}
	if len(issues) != 1 {
		t.Fatalf("issues num got: %d, expected: %d", len(issues), 1)
	}
	if issues[0].SuggestedLabel != 1 || issues[0].Score != 0.1 {
		t.Errorf("issue quality fields got: %+v, expected the finding values", issues[0])
	}
	if audited[0].Issue || audited[0].SuggestedLabel != -1 {
		t.Errorf("untouched example got: %+v, expected no issue and no suggestion", audited[0])
	}
	if audited[2].Issue {
		t.Errorf("candidate below the filter got flagged: %+v", audited[2])
	}
}

func TestDatasetOf(t *testing.T) {
	examples := []model.Example{
		model.NewExample("test-data", vector.V{0, 0}, 0, time.Now(), nil),
		model.NewExample("test-data", vector.V{5, 5}, 1, time.Now(), nil),
	}
	d, err := datasetOf("test-data", examples)
	if err != nil {
		t.Fatalf("calling the datasetOf function, unexpected error: %v", err)
	}
	if d.Len() != 2 || d.Classes != 2 || d.Dims() != 2 {
		t.Errorf("dataset shape got: %d rows %d classes %d dims, expected: 2/2/2",
			d.Len(), d.Classes, d.Dims())
	}
	if d.Y[1] != 1 {
		t.Errorf("dataset label got: %d, expected: %d", d.Y[1], 1)
	}
}

func TestIssues(t *testing.T) {
	stored := []model.Example{
		{Dataset: "test-data", Issue: true, Score: 0.5},
		{Dataset: "test-data", Issue: true, Score: 0.1},
		{Dataset: "test-data", Issue: true, Score: 0.3},
	}
	m := &manager{opts: Options{deps: pullDependencies{
		fetchExamplesByDataset: func(s string, fn exampleDb.FilterFn) ([]model.Example, error) {
			var filtered []model.Example
			for _, e := range stored {
				if fn == nil || fn(e) {
					filtered = append(filtered, e)
				}
			}
			return filtered, nil
		},
	}}}

	issues, err := m.Issues("test-data", 2)
	if err != nil {
		t.Fatalf("calling the Issues method, unexpected error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("issues num got: %d, expected: %d", len(issues), 2)
	}
	if issues[0].Score != 0.1 || issues[1].Score != 0.3 {
		t.Errorf("issues order got: %v, expected worst first", issues)
	}
}

func TestExampleDigest(t *testing.T) {
	a := model.NewExample("test-data", vector.V{1, 2, 3}, 0, time.Now(), nil)
	b := model.NewExample("test-data", vector.V{1, 2, 3}, 0, time.Now(), nil)
	c := model.NewExample("test-data", vector.V{1, 2, 3}, 1, time.Now(), nil)
	d := model.NewExample("other-data", vector.V{1, 2, 3}, 0, time.Now(), nil)

	if exampleDigest(a) != exampleDigest(b) {
		t.Errorf("same vector and label produced different digests")
	}
	if exampleDigest(a) == exampleDigest(c) {
		t.Errorf("different labels produced the same digest")
	}
	if exampleDigest(a) == exampleDigest(d) {
		t.Errorf("different datasets produced the same digest")
	}
}

func TestProcessDedupPerDataset(t *testing.T) {
	m := &manager{
		seen: map[[32]byte]struct{}{},
		dbTxExecutor: newDBTxExecutor(dbTxExecutorOptions{
			flushSize: 100,
			deps: pullDependencies{
				appendExamples: func(ctx context.Context, examples []model.Example) error {
					return nil
				},
			},
		}, make(chan error, 1)),
	}

	examples := []model.Example{
		model.NewExample("dataset-a", vector.V{1, 2, 3}, 0, time.Now(), nil),
		model.NewExample("dataset-b", vector.V{1, 2, 3}, 0, time.Now(), nil),
		model.NewExample("dataset-a", vector.V{1, 2, 3}, 0, time.Now(), nil),
	}
	for i := range examples {
		if err := m.process(context.Background(), examples[i]); err != nil {
			t.Fatalf("calling the process method, unexpected error: %v", err)
		}
	}

	m.dbTxExecutor.mtx.RLock()
	defer m.dbTxExecutor.mtx.RUnlock()
	if len(m.dbTxExecutor.buf) != 2 {
		t.Fatalf("examples buffered for persistence got: %d, expected: %d", len(m.dbTxExecutor.buf), 2)
	}
	if m.dbTxExecutor.buf[0].Dataset != "dataset-a" || m.dbTxExecutor.buf[1].Dataset != "dataset-b" {
		t.Errorf("buffered datasets got: %s, %s, expected one example per dataset",
			m.dbTxExecutor.buf[0].Dataset, m.dbTxExecutor.buf[1].Dataset)
	}
}

func TestCollectShutdown(t *testing.T) {
	m := &manager{
		collectCh:      make(chan model.Example),
		doneCh:         make(chan struct{}),
		queue:          map[string]*iqueue.Queue[model.Example]{},
		seen:           map[[32]byte]struct{}{},
		cancelNotifier: func() {},
		shutDownCh:     make(chan error, 64),
		dbTxExecutor: newDBTxExecutor(dbTxExecutorOptions{
			flushSize: 100,
			deps: pullDependencies{
				appendExamples: func(ctx context.Context, examples []model.Example) error {
					return nil
				},
			},
		}, make(chan error, 1)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go m.collector(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Collect(model.NewExample("test-data", vector.V{1, 2}, 0, time.Now(), nil))
	}()
	cancel()

	select {
	case <-m.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not release senders on cancel")
	}

	select {
	case err := <-errCh:
		// the send may have been received before cancel, then the next
		// one has to fail instead of blocking forever
		if err == nil {
			if err := m.Collect(model.NewExample("test-data", vector.V{3, 4}, 1, time.Now(), nil)); err == nil {
				t.Fatalf("collecting after shutdown, expected error, got nil")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("a sender blocked on collect wedged the shutdown")
	}
}
