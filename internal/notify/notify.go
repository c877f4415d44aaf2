// Package notify delivers batches of flagged examples to configured webhook
// targets. Undelivered batches survive restarts through the bbolt store.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-sift/sift/internal/database"
	exampleModel "github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/internal/httputil"
	"github.com/go-sift/sift/internal/logging"
	notifyDb "github.com/go-sift/sift/internal/notify/database"
	"github.com/go-sift/sift/internal/notify/model"
	"github.com/go-sift/sift/pkg/rworker"
)

type ProvideFn = func(chan<- error) (Manager, error)

const UserAgent = "SIFT/0.1"

type Options struct {
	allowNotify          bool
	maxConcurrentRequest int
	requestTimeout       time.Duration
	notifyInterval       time.Duration
	targets              Targets
}

type Option func(*manager)

func WithAllowNotify(t bool) Option {
	return func(o *manager) {
		o.opts.allowNotify = t
	}
}

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithNotifyInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.notifyInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.opts.targets = m
	}
}

// issue is the wire form of one flagged example.
type issue struct {
	Vec            []float64   `json:"vec"`
	GivenLabel     int         `json:"givenLabel"`
	SuggestedLabel int         `json:"suggestedLabel"`
	Score          float64     `json:"score"`
	CreatedAt      time.Time   `json:"createdAt"`
	Extra          interface{} `json:"extra"`
}

type request struct {
	Dataset string  `json:"dataset"`
	Issues  []issue `json:"issues"`
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	m := &manager{
		notifyDb:   notifyDb.New(db),
		shutdownCh: shutdownCh,
		clients:    map[string]*http.Client{},
		pending:    map[string][]exampleModel.Example{},
	}
	m.opts.allowNotify = true
	m.opts.maxConcurrentRequest = 64
	m.opts.requestTimeout = 10 * time.Second
	m.opts.notifyInterval = 5 * time.Second
	for _, f := range opts {
		f(m)
	}
	for _, target := range m.opts.targets {
		if _, ok := m.clients[target.Dataset]; !ok {
			client, err := httputil.NewClientFromConfig(target.HTTPConfig, true)
			if err != nil {
				return nil, fmt.Errorf("unable create client for dataset %s: %v", target.Dataset, err)
			}
			m.clients[target.Dataset] = client
		}
	}
	return m, nil
}

type Notifier interface {
	Notify(examples ...exampleModel.Example)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

type manager struct {
	mtx        sync.RWMutex
	opts       Options
	notifyDb   *notifyDb.DB
	shutdownCh chan<- error
	clients    map[string]*http.Client
	// flagged examples waiting for the next delivery tick, per dataset
	pending map[string][]exampleModel.Example
	cancel  func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	if !m.opts.allowNotify {
		return nil
	}
	go m.notifier(ctx)
	if err := m.initialize(ctx); err != nil {
		return fmt.Errorf("can not start notify manager: %v", err)
	}
	return nil
}

func (m *manager) Stop() {
	m.cancel()
}

func (m *manager) Notify(examples ...exampleModel.Example) {
	if !m.opts.allowNotify {
		return
	}
	m.mtx.Lock()
	for i := range examples {
		m.pending[examples[i].Dataset] = append(m.pending[examples[i].Dataset], examples[i])
	}
	m.mtx.Unlock()
}

// initialize requeues batches that were persisted on a previous shutdown.
func (m *manager) initialize(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	notifications, err := m.notifyDb.FindAll(ctx, nil)
	if err != nil {
		logger.Errorf("error with fetching data from db, %v", err)
	}
	for i := range notifications {
		m.Notify(notifications[i].Examples...)
		if err := m.notifyDb.Delete(context.Background(), notifications[i]); err != nil {
			return fmt.Errorf("unable delete notification on initialize: %v", err)
		}
	}
	return nil
}

func (m *manager) shutdown() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for dataset, examples := range m.pending {
		if len(examples) == 0 {
			continue
		}
		notification := model.NewNotification(dataset, examples)
		if err := m.notifyDb.Store(context.Background(), notification); err != nil {
			return fmt.Errorf("notify shutdown: unable store notification: %v", err)
		}
	}
	return nil
}

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	rateCh := make(chan struct{}, m.opts.maxConcurrentRequest)
	defer close(errCh)
	defer close(rateCh)
	go func() {
		for err := range errCh {
			logger.Errorf("notify error: %v", err)
		}
	}()
	defer func() {
		m.shutdownCh <- m.shutdown()
	}()
	wg := sync.WaitGroup{}
	ticker := time.NewTicker(m.opts.notifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, target := range m.opts.targets {
				target := target
				m.mtx.RLock()
				examples := m.pending[target.Dataset]
				m.mtx.RUnlock()
				if len(examples) == 0 {
					continue
				}
				rworker.Job(&wg, func() error {
					notification := model.NewNotification(target.Dataset, examples)
					if err := m.notifyDb.Store(context.Background(), notification); err != nil {
						return fmt.Errorf("unable store notification: %v", err)
					}
					if err := m.do(context.Background(), target, requestOf(notification)); err != nil {
						return fmt.Errorf("notify do request error: %v", err)
					}
					if err := m.notifyDb.Delete(context.Background(), notification); err != nil {
						return fmt.Errorf("unable delete notification: %v", err)
					}
					m.mtx.Lock()
					m.pending[target.Dataset] = m.pending[target.Dataset][:0]
					m.mtx.Unlock()
					return nil
				}, rateCh, errCh)
			}
			wg.Wait()
		case <-ctx.Done():
			return
		}
	}
}

func requestOf(notification model.Notification) request {
	issues := make([]issue, len(notification.Examples))
	for i, e := range notification.Examples {
		issues[i] = issue{
			Vec:            e.Vec,
			GivenLabel:     e.Label,
			SuggestedLabel: e.SuggestedLabel,
			Score:          e.Score,
			CreatedAt:      e.CreatedAt,
			Extra:          e.Extra,
		}
	}
	return request{Dataset: notification.Dataset, Issues: issues}
}

func (m *manager) do(ctx context.Context, target Target, payload request) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.requestTimeout)
	defer cancel()
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	link, err := url.Parse(target.URL)
	if err != nil {
		return fmt.Errorf("url parsing error: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, link.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", UserAgent)
	client, ok := m.clients[target.Dataset]
	if !ok {
		return fmt.Errorf("client for dataset %s not defined", target.Dataset)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response was not 200 OK: %s", resp.Status)
	}
	return nil
}
