package audit

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-sift/sift/internal/database"
	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/internal/detector"
	exampleDb "github.com/go-sift/sift/internal/example/database"
	"github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/notify"
	"github.com/go-sift/sift/internal/report"
	"github.com/go-sift/sift/internal/report/cache"
	"github.com/go-sift/sift/internal/util"
	"github.com/go-sift/sift/pkg/iqueue"
	"github.com/go-sift/sift/pkg/pqueue"
)

// Contract for returning the Manager instance
type ProvideFn func(notify.Manager, chan<- error) (Manager, error)

// Manager is the background audit service: it collects examples, persists
// them and audits datasets on demand or on a timer.
type Manager interface {
	CollectAuditor
	Run(context.Context) error
	Stop()
}

// Collector accepts labeled examples from outside and queues them for
// persistence.
type Collector interface {
	Collect(in ...model.Example) error
}

// Auditor runs the pipeline over a stored dataset and serves its findings.
type Auditor interface {
	Audit(ctx context.Context, dataset string) (*report.Report, error)
	Issues(dataset string, limit int) ([]model.Example, error)
}

// Aggregation interface for Collector and Auditor interfaces
type CollectAuditor interface {
	Collector
	Auditor
}

// Abstractions for getting dependencies
type (
	fetchExamplesFn          func(context.Context, exampleDb.FilterFn) ([]model.Example, error)
	fetchExamplesByDatasetFn func(string, exampleDb.FilterFn) ([]model.Example, error)
	deleteExampleFn          func(context.Context, model.Example) error
	deleteExamplesFn         func(context.Context, []model.Example) error
	appendExamplesFn         func(context.Context, []model.Example) error
	fetchKeysFn              func() ([]string, error)
	countByDatasetFn         func(string) (int, error)
)

// General structure for aggregation of dependency pulling functions
type pullDependencies struct {
	fetchExamples          fetchExamplesFn
	fetchExamplesByDataset fetchExamplesByDatasetFn
	deleteExample          deleteExampleFn
	deleteExamples         deleteExamplesFn
	appendExamples         appendExamplesFn
	fetchKeys              fetchKeysFn
	countByDataset         countByDatasetFn
}

type Options struct {
	minAuditSize   int
	maxItemsStored int
	maxStorageTime time.Duration
	auditTime      time.Duration
	dbFlushTime    time.Duration
	dbFlushSize    int
	rebuildDBTime  time.Duration
	deps           pullDependencies
}

type Option func(*manager)

func WithDBFlushTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.dbFlushTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(o *manager) {
		o.opts.dbFlushSize = n
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.rebuildDBTime = t
	}
}

func WithAuditTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.auditTime = t
	}
}

func WithMinAuditSize(n int) Option {
	return func(o *manager) {
		o.opts.minAuditSize = n
	}
}

func WithMaxItemsStored(n int) Option {
	return func(o *manager) {
		o.opts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.maxStorageTime = t
	}
}

// New return manager
func New(
	db *database.DB,
	pipeline *Pipeline,
	reports cache.Cache,
	notifier notify.Manager,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier instance is not created")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline instance is not created")
	}
	if reports == nil {
		return nil, fmt.Errorf("report cache instance is not created")
	}

	m := &manager{
		exampleDB:  exampleDb.New(db),
		pipeline:   pipeline,
		reports:    reports,
		collectCh:  make(chan model.Example, 1),
		doneCh:     make(chan struct{}),
		shutDownCh: shutdownCh,
		queue:      map[string]*iqueue.Queue[model.Example]{},
		seen:       map[[32]byte]struct{}{},
		notifier:   notifier,
	}

	for _, f := range opts {
		f(m)
	}

	// structure containing functions for getting and adding examples
	m.opts.deps = pullDependencies{
		fetchExamples:          m.exampleDB.FindAll,
		fetchExamplesByDataset: m.exampleDB.FindByDataset,
		deleteExample:          m.exampleDB.Delete,
		deleteExamples:         m.exampleDB.DeleteMany,
		appendExamples:         m.exampleDB.AppendMany,
		fetchKeys:              m.exampleDB.Keys,
		countByDataset:         m.exampleDB.CountByDataset,
	}

	m.dbScheduler = newDBScheduler(dbSchedulerConfig{
		deps:           m.opts.deps,
		maxItemsStored: m.opts.maxItemsStored,
		maxStorageTime: m.opts.maxStorageTime,
		rebuildDBTime:  m.opts.rebuildDBTime,
	})

	m.dbTxExecutor = newDBTxExecutor(
		dbTxExecutorOptions{
			deps:      m.opts.deps,
			flushTime: m.opts.dbFlushTime,
			flushSize: m.opts.dbFlushSize,
		},
		shutdownCh,
	)

	return m, nil
}

// The main audit service structure. Owns the collect queue per dataset,
// deduplicates submissions, schedules periodic audits and notifies on
// found issues.
type manager struct {
	mtx sync.RWMutex

	opts Options
	// Main example storage
	exampleDB *exampleDb.DB
	// The notification manager
	notifier notify.Manager
	// The transaction manager in the store
	dbTxExecutor *dbTxExecutor
	// Managing data in storage
	dbScheduler *dbScheduler
	// The train, detect, clean, retrain loop
	pipeline *Pipeline
	// Latest report per dataset
	reports cache.Cache

	// Queue for new data to be processed
	queue map[string]*iqueue.Queue[model.Example]
	// New data channel for processing
	collectCh chan model.Example
	// Closed when the collector stops receiving, releases blocked senders
	doneCh chan struct{}
	// Channel to shutdown the application
	shutDownCh chan<- error

	closed bool
	// Digests of stored vectors, used to drop duplicate submissions
	seen map[[32]byte]struct{}

	cancelNotifier func()
	cancel         func()
}

// Run starts the collect loop, the storage flusher and scheduler, the
// audit timer and the notifier, then loads the stored examples.
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	m.cancelNotifier = cancel

	go m.collector(ctx)
	go m.dbTxExecutor.flusher(ctx)
	go m.dbScheduler.schedule(ctx)
	if m.opts.auditTime > 0 {
		go m.auditor(ctx)
	}

	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start audit manager: %w", err)
	}

	if err := m.notifier.Run(c); err != nil {
		return fmt.Errorf("notify.Run: %w", err)
	}

	return nil
}

// Stop the manager
func (m *manager) Stop() {
	m.cancel()
}

// Collect adds examples to the feed for saving to the queue
func (m *manager) Collect(in ...model.Example) error {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return fmt.Errorf("error send to collect, shutting down")
	}
	for i := range in {
		select {
		case m.collectCh <- in[i]:
		case <-m.doneCh:
			m.mtx.RUnlock()
			return fmt.Errorf("error send to collect, shutting down")
		}
	}
	m.mtx.RUnlock()
	return nil
}

// Audit rebuilds the dataset from its stored examples, runs the pipeline
// and persists the per example quality fields back to the store.
func (m *manager) Audit(ctx context.Context, name string) (*report.Report, error) {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return nil, fmt.Errorf("error to audit, shutting down")
	}
	m.mtx.RUnlock()

	examples, err := m.opts.deps.fetchExamplesByDataset(name, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch examples of dataset %s: %w", name, err)
	}
	if len(examples) < m.opts.minAuditSize {
		return nil, fmt.Errorf("dataset %s has %d examples, audit needs at least %d",
			name, len(examples), m.opts.minAuditSize)
	}

	d, err := datasetOf(name, examples)
	if err != nil {
		return nil, fmt.Errorf("unable to build dataset %s: %w", name, err)
	}

	rep, err := m.pipeline.Run(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("unable to audit dataset %s: %w", name, err)
	}

	findings, err := m.pipeline.Findings(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("unable to collect findings of dataset %s: %w", name, err)
	}

	audited, issues := applyFindings(examples, findings)
	if err := m.opts.deps.appendExamples(ctx, audited); err != nil {
		return nil, fmt.Errorf("unable to persist audit of dataset %s: %w", name, err)
	}
	if err := m.reports.Put(ctx, rep); err != nil {
		logging.FromContext(ctx).Errorf("unable to cache report of dataset %s: %v", name, err)
	}
	m.alert(issues...)

	return rep, nil
}

// Issues returns the stored examples of the dataset flagged by the last
// audit, worst first.
func (m *manager) Issues(name string, limit int) ([]model.Example, error) {
	examples, err := m.opts.deps.fetchExamplesByDataset(name, func(e model.Example) bool {
		return e.Issue
	})
	if err != nil {
		return nil, fmt.Errorf("unable to fetch issues of dataset %s: %w", name, err)
	}
	opts := []pqueue.Option[model.Example]{pqueue.WithOrderAsc[model.Example]()}
	if limit > 0 {
		opts = append(opts, pqueue.WithCap[model.Example](uint(limit)))
	}
	q := pqueue.New[model.Example](opts...)
	for _, e := range examples {
		q.Push(e, e.Score)
	}
	return q.PopAll(), nil
}

// bulkLoad fills the duplicate filter from storage and requeues examples
// that were collected but never flushed with an audited status.
func (m *manager) bulkLoad(ctx context.Context) error {
	examples, err := m.opts.deps.fetchExamples(ctx, nil)
	if err != nil {
		return fmt.Errorf("error fetching all examples: %w", err)
	}
	for i := range examples {
		m.seen[exampleDigest(examples[i])] = struct{}{}
	}
	return nil
}

func (m *manager) process(ctx context.Context, example model.Example) error {
	digest := exampleDigest(example)

	m.mtx.Lock()
	if _, ok := m.seen[digest]; ok {
		m.mtx.Unlock()
		return nil
	}
	m.seen[digest] = struct{}{}
	m.mtx.Unlock()

	m.dbTxExecutor.write(ctx, example)
	return nil
}

func (m *manager) alert(in ...model.Example) {
	if len(in) == 0 {
		return
	}
	m.mtx.RLock()
	if !m.closed {
		m.mtx.RUnlock()
		m.notifier.Notify(in...)
		return
	}
	m.mtx.RUnlock()
}

// auditor periodically audits every dataset that has grown past the
// minimum size.
func (m *manager) auditor(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(m.opts.auditTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			keys, err := m.opts.deps.fetchKeys()
			if err != nil {
				logger.Errorf("unable to fetch dataset keys: %v", err)
				continue
			}
			for _, key := range keys {
				num, err := m.opts.deps.countByDataset(key)
				if err != nil {
					logger.Errorf("unable to count dataset %s: %v", key, err)
					continue
				}
				if num < m.opts.minAuditSize {
					continue
				}
				if _, err := m.Audit(ctx, key); err != nil {
					logger.Errorf("unable to audit dataset %s: %v", key, err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) shutdown(ctx context.Context, q *iqueue.Queue[model.Example]) error {
	for {
		front := q.Queue().Front()
		if front == nil {
			if !m.recvShutdown() {
				return fmt.Errorf("audit shutdown: closed num receivers not equal created")
			}
			m.cancelNotifier()
			break
		}

		if err := m.process(ctx, front.Value.(model.Example)); err != nil {
			return fmt.Errorf("audit shutdown: unable processed data: %w", err)
		}

		q.Queue().Remove(front)
	}
	return nil
}

func (m *manager) recvShutdown() bool {
	finishedNum, queuesNum := 0, len(m.queue)
	for _, q := range m.queue {
		if q.Queue().Len() == 0 {
			finishedNum += 1
		}
	}

	return finishedNum == queuesNum
}

func (m *manager) receive(ctx context.Context, q *iqueue.Queue[model.Example]) {
	logger := logging.FromContext(ctx)
	defer func() {
		m.shutDownCh <- m.shutdown(ctx, q)
	}()

	for {
		select {
		case recv := <-q.Receive():
			if err := m.process(ctx, recv); err != nil {
				logger.Errorf("unable processed data: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

const workerMul = 2

func (m *manager) worker(ctx context.Context, queue *iqueue.Queue[model.Example], num int) {
	for i := 0; i < num; i++ {
		go m.receive(ctx, queue)
	}
}

func (m *manager) collector(ctx context.Context) {
	for {
		select {
		case in := <-m.collectCh:
			q, ok := m.queue[in.Dataset]
			if !ok {
				queue := iqueue.New[model.Example]()
				go queue.Loop()
				m.worker(ctx, queue, runtime.NumCPU()*workerMul)
				m.queue[in.Dataset] = queue
				q = queue
			}
			q.Send(in)
		case <-ctx.Done():
			close(m.doneCh)
			m.mtx.Lock()
			m.closed = true
			m.mtx.Unlock()
			return
		}
	}
}

func exampleDigest(e model.Example) [32]byte {
	return util.HashKeyedVector(e.Dataset, append(e.Vec.Copy(), float64(e.Label)))
}

// datasetOf turns stored examples into a dataset. Row order defines the
// coordinates findings come back in, so callers keep the slice around.
func datasetOf(name string, examples []model.Example) (*dataset.Dataset, error) {
	rows := make([][]float64, len(examples))
	y := make([]int, len(examples))
	for i := range examples {
		rows[i] = examples[i].Vec
		y[i] = examples[i].Label
	}
	return dataset.New(name, rows, y)
}

// applyFindings writes the detector verdicts back onto the stored examples
// and returns the flagged ones separately.
func applyFindings(examples []model.Example, findings []detector.Finding) ([]model.Example, []model.Example) {
	byIndex := make(map[int]detector.Finding, len(findings))
	for _, f := range findings {
		byIndex[f.Index] = f
	}
	var issues []model.Example
	for i := range examples {
		examples[i].Status = model.StatusAudited
		f, ok := byIndex[i]
		if !ok {
			examples[i].Issue = false
			examples[i].SuggestedLabel = -1
			continue
		}
		examples[i].Issue = f.Issue
		examples[i].Score = f.Score
		examples[i].SuggestedLabel = f.SuggestedLabel
		if f.Issue {
			issues = append(issues, examples[i])
		}
	}
	return examples, issues
}
