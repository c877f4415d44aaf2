// Package srvenv carries the wired service environment: the database plus
// the provider functions setup assembled from the configuration.
package srvenv

import (
	"context"

	"github.com/go-sift/sift/internal/audit"
	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/database"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/internal/notify"
	"github.com/go-sift/sift/internal/report/cache"
	"github.com/go-sift/sift/internal/scrape"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	reports    cache.Cache
	classifier classifier.ProvideFn
	detector   detector.ProvideFn
	auditor    audit.ProvideFn
	notifier   notify.ProvideFn
	scrapper   scrape.ProvideFn
}

func (s *SrvEnv) ProvideScrapper() scrape.ProvideFn {
	return s.scrapper
}

func (s *SrvEnv) ProvideNotifier() notify.ProvideFn {
	return s.notifier
}

func (s *SrvEnv) ProvideAuditor() audit.ProvideFn {
	return s.auditor
}

func (s *SrvEnv) ProvideClassifier() classifier.ProvideFn {
	return s.classifier
}

func (s *SrvEnv) ProvideDetector() detector.ProvideFn {
	return s.detector
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) ReportCache() cache.Cache {
	return s.reports
}

func WithScrapper(fn scrape.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.scrapper = fn
		return s
	}
}

func WithNotifier(fn notify.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notifier = fn
		return s
	}
}

func WithAuditor(fn audit.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.auditor = fn
		return s
	}
}

func WithClassifier(fn classifier.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.classifier = fn
		return s
	}
}

func WithDetector(fn detector.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.detector = fn
		return s
	}
}

func WithReportCache(c cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.reports = c
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.reports != nil {
		if err := s.reports.Close(); err != nil {
			return err
		}
	}
	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
