// Package collect exposes the example submission endpoint of the service.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-sift/sift/internal/audit"
	"github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/internal/httputil"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/obs"
	"github.com/go-sift/sift/pkg/math/vector"
	"github.com/valyala/fastrand"
	"go.opencensus.io/stats"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Dataset string `json:"dataset"`
	Data    []item `json:"data"`
}

type item struct {
	Vec       []float64   `json:"vector"`
	Label     int         `json:"label"`
	Extra     interface{} `json:"extra"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewHandler(cfg *Config, collector audit.Collector) (http.Handler, error) {
	return &handler{
		collector: collector,
		cfg:       cfg,
	}, nil
}

type handler struct {
	collector audit.Collector
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
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

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if req.Dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset must not be empty"}`)
		return
	}

	data := downsample(req.Data, h.cfg.MaxDataItemsLen)

	defer func() {
		stats.Record(ctx, obs.CollectedExamples.M(int64(len(data))))
		logger.Infof("collected %d examples for dataset %s", len(data), req.Dataset)
	}()
	go func() {
		sort.Slice(data, func(i, j int) bool {
			return data[i].CreatedAt.Before(data[j].CreatedAt)
		})
		for _, dat := range data {
			if err := h.collector.Collect(
				model.NewExample(req.Dataset, vector.New(dat.Vec), dat.Label, dat.CreatedAt, dat.Extra),
			); err != nil {
				logger.Errorf("error sending to collect service: %v", err)
			}
		}
	}()
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}

// downsample keeps a uniform random sample of max items using reservoir
// sampling, so oversized payloads are thinned instead of rejected.
func downsample(data []item, max int) []item {
	if max <= 0 || len(data) <= max {
		return data
	}
	sampled := make([]item, max)
	copy(sampled, data[:max])
	for i := max; i < len(data); i++ {
		j := int(fastrand.Uint32n(uint32(i + 1)))
		if j < max {
			sampled[j] = data[i]
		}
	}
	return sampled
}
