package server

import (
	"context"
	"net/http"

	"github.com/go-sift/sift/internal/logging"
)

// HandleHealth answers liveness probes. It fails only when the process is
// shutting down.
func HandleHealth(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			logging.FromContext(r.Context()).Debugf("health check failed, shutting down")
			http.Error(w, `{"status": "shutting down"}`, http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}
	})
}
