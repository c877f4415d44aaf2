// Package inspect exposes the audit surface of the service: listing the
// flagged examples of a dataset and triggering an audit on demand.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-sift/sift/internal/audit"
	"github.com/go-sift/sift/internal/httputil"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/obs"
	"github.com/go-sift/sift/internal/report/cache"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// NewIssuesHandler serves GET /issues?dataset=<name>&limit=<n>: the stored
// examples flagged by the last audit, worst first, together with the cached
// report when one exists.
func NewIssuesHandler(cfg *Config, auditor audit.Auditor, reports cache.Cache) (http.Handler, error) {
	return &issuesHandler{cfg: cfg, auditor: auditor, reports: reports}, nil
}

type issuesHandler struct {
	cfg     *Config
	auditor audit.Auditor
	reports cache.Cache
}

func (h *issuesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset must not be empty"}`)
		return
	}

	limit := h.cfg.MaxIssuesLen
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.RespBadRequest(ctx, w, `{"error": "limit %q is not a positive number"}`, raw)
			return
		}
		if n < limit {
			limit = n
		}
	}

	issues, err := h.auditor.Issues(dataset, limit)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "unable to fetch issues, %v"}`, err)
		return
	}

	resp := map[string]interface{}{
		"dataset": dataset,
		"issues":  issues,
	}
	if rep, err := h.reports.Get(ctx, dataset); err == nil {
		resp["report"] = rep
	} else if !errors.Is(err, cache.ErrNotFound) {
		logger.Errorf("unable to fetch cached report of dataset %s: %v", dataset, err)
	}

	httputil.RespJSON(ctx, w, http.StatusOK, resp)
}

type auditRequest struct {
	Dataset string `json:"dataset"`
}

// NewAuditHandler serves POST /audit: runs the pipeline over the stored
// dataset and returns the fresh report.
func NewAuditHandler(cfg *Config, auditor audit.Auditor) (http.Handler, error) {
	return &auditHandler{cfg: cfg, auditor: auditor}, nil
}

type auditHandler struct {
	cfg     *Config
	auditor audit.Auditor
}

func (h *auditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.AuditTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}
	if req.Dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset must not be empty"}`)
		return
	}

	started := time.Now()
	rep, err := h.auditor.Audit(ctx, req.Dataset)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "unable to audit dataset %s, %v"}`, req.Dataset, err)
		return
	}

	mctx, _ := tag.New(ctx, tag.Upsert(obs.KeyDataset, req.Dataset))
	stats.Record(mctx,
		obs.AuditsRun.M(1),
		obs.IssuesFound.M(int64(rep.IssuesNum)),
		obs.AuditDuration.M(float64(time.Since(started).Milliseconds())),
	)
	logger.Infof("audited dataset %s: %d issues", req.Dataset, rep.IssuesNum)

	httputil.RespJSON(ctx, w, http.StatusOK, rep)
}
