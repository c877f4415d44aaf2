package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-sift/sift/internal/collect"
	"github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/internal/inspect"
	"github.com/go-sift/sift/internal/integration"
	"github.com/go-sift/sift/internal/report"
	"github.com/go-sift/sift/internal/report/cache"
	"github.com/go-sift/sift/internal/server"
)

type fakeService struct {
	mtx       sync.Mutex
	collected []model.Example

	auditFn  func(ctx context.Context, dataset string) (*report.Report, error)
	issuesFn func(dataset string, limit int) ([]model.Example, error)
}

func (f *fakeService) Collect(in ...model.Example) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.collected = append(f.collected, in...)
	return nil
}

func (f *fakeService) collectedNum() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return len(f.collected)
}

func (f *fakeService) Audit(ctx context.Context, dataset string) (*report.Report, error) {
	return f.auditFn(ctx, dataset)
}

func (f *fakeService) Issues(dataset string, limit int) ([]model.Example, error) {
	return f.issuesFn(dataset, limit)
}

func newTestServer(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()

	collectHandler, err := collect.NewHandler(&collect.Config{
		RequestTimeout:  5 * time.Second,
		MaxDataItemsLen: 100,
	}, svc)
	if err != nil {
		t.Fatalf("creating collect handler, unexpected error: %v", err)
	}
	inspectCfg := &inspect.Config{
		RequestTimeout: 5 * time.Second,
		AuditTimeout:   5 * time.Second,
		MaxIssuesLen:   100,
	}
	issuesHandler, err := inspect.NewIssuesHandler(inspectCfg, svc, cache.NewMemory())
	if err != nil {
		t.Fatalf("creating issues handler, unexpected error: %v", err)
	}
	auditHandler, err := inspect.NewAuditHandler(inspectCfg, svc)
	if err != nil {
		t.Fatalf("creating audit handler, unexpected error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/collect", collectHandler)
	mux.Handle("/issues", issuesHandler)
	mux.Handle("/audit", auditHandler)
	mux.Handle("/health", server.HandleHealth(context.Background()))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	svc := &fakeService{
		auditFn: func(ctx context.Context, dataset string) (*report.Report, error) {
			return &report.Report{Dataset: dataset, IssuesNum: 1}, nil
		},
		issuesFn: func(dataset string, limit int) ([]model.Example, error) {
			return []model.Example{{Dataset: dataset, Issue: true, Score: 0.1}}, nil
		},
	}
	srv := newTestServer(t, svc)
	client := integration.NewClient(strings.TrimPrefix(srv.URL, "http://"))

	resp, err := client.Collect(integration.Request{
		Dataset: "test-data",
		Data: []integration.Item{
			{Vec: []float64{1, 2}, Label: 0, CreatedAt: time.Now()},
			{Vec: []float64{3, 4}, Label: 1, CreatedAt: time.Now()},
		},
	})
	if err != nil {
		t.Fatalf("calling the Collect method, unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("collect status got: %d, expected: %d", resp.StatusCode, http.StatusOK)
	}
	// the collect handler hands examples to the collector asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for svc.collectedNum() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("collected examples got: %d, expected: %d", svc.collectedNum(), 2)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err = client.Audit("test-data")
	if err != nil {
		t.Fatalf("calling the Audit method, unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit status got: %d, expected: %d", resp.StatusCode, http.StatusOK)
	}
	var rep report.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decoding audit response, unexpected error: %v", err)
	}
	if rep.Dataset != "test-data" || rep.IssuesNum != 1 {
		t.Errorf("audit report got: %s/%d, expected: test-data/1", rep.Dataset, rep.IssuesNum)
	}

	resp, err = client.Issues("test-data", 1)
	if err != nil {
		t.Fatalf("calling the Issues method, unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("issues status got: %d, expected: %d", resp.StatusCode, http.StatusOK)
	}
	var issuesResp struct {
		Dataset string          `json:"dataset"`
		Issues  []model.Example `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issuesResp); err != nil {
		t.Fatalf("decoding issues response, unexpected error: %v", err)
	}
	if issuesResp.Dataset != "test-data" || len(issuesResp.Issues) != 1 {
		t.Errorf("issues response got: %s/%d, expected: test-data/1", issuesResp.Dataset, len(issuesResp.Issues))
	}

	resp, err = client.Health()
	if err != nil {
		t.Fatalf("calling the Health method, unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status got: %d, expected: %d", resp.StatusCode, http.StatusOK)
	}
}
