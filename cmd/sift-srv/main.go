package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/go-sift/sift/internal/buildinfo"
	"github.com/go-sift/sift/internal/collect"
	sift "github.com/go-sift/sift/internal/config"
	"github.com/go-sift/sift/internal/inspect"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/obs"
	"github.com/go-sift/sift/internal/server"
	"github.com/go-sift/sift/internal/setup"
	"github.com/go-sift/sift/internal/shutdown"
	"go.opencensus.io/stats/view"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	var (
		shutdownCh    chan error
		shutdownCount = 2
	)
	config := sift.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}

	if config.SvcModeType == sift.SvcModeTypeScrape {
		shutdownCount++
	}

	shutdownCh = make(chan error, shutdownCount)
	notifier, err := env.ProvideNotifier()(shutdownCh)
	if err != nil {
		return fmt.Errorf("notifier provider function error: %w", err)
	}
	auditor, err := env.ProvideAuditor()(notifier, shutdownCh)
	if err != nil {
		return fmt.Errorf("auditor provider function error: %w", err)
	}

	if config.SvcModeType == sift.SvcModeTypeScrape {
		scrapper, err := env.ProvideScrapper()(auditor, shutdownCh)
		if err != nil {
			return fmt.Errorf("scrapperCaller: %w", err)
		}
		if err := scrapper.Run(ctx); err != nil {
			return fmt.Errorf("scrapperRun: %w", err)
		}
	} else if err := auditor.Run(ctx); err != nil {
		return fmt.Errorf("auditor.Run: %w", err)
	}

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("sever.New: %w", err)
	}

	if err := obs.RegisterViews(); err != nil {
		return fmt.Errorf("obs.RegisterViews: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "sift"})
	if err != nil {
		return fmt.Errorf("prometheus.NewExporter: %w", err)
	}
	view.RegisterExporter(exporter)

	mux := http.NewServeMux()

	issuesHandler, err := inspect.NewIssuesHandler(&config.Inspect, auditor, env.ReportCache())
	if err != nil {
		return fmt.Errorf("inspect.NewIssuesHandler: %w", err)
	}
	auditHandler, err := inspect.NewAuditHandler(&config.Inspect, auditor)
	if err != nil {
		return fmt.Errorf("inspect.NewAuditHandler: %w", err)
	}

	mux.Handle("/issues", issuesHandler)
	mux.Handle("/audit", auditHandler)
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/metrics", exporter)

	if config.SvcModeType == sift.SvcModeTypeCollect {
		collectHandler, err := collect.NewHandler(&config.Collect, auditor)
		if err != nil {
			return fmt.Errorf("collect.NewHandler: %w", err)
		}
		mux.Handle("/collect", collectHandler)
	}

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
