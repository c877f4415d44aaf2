// Package config holds the root service configuration, assembled from the
// environment and handed to setup through the provider interfaces.
package config

import (
	"github.com/go-sift/sift/internal/audit"
	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/collect"
	"github.com/go-sift/sift/internal/database"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/internal/inspect"
	"github.com/go-sift/sift/internal/notify"
	"github.com/go-sift/sift/internal/report/cache"
	"github.com/go-sift/sift/internal/scrape"
	"github.com/go-sift/sift/internal/setup"
)

var (
	_ setup.SvcModeConfigProvider     = (*Config)(nil)
	_ setup.DatabaseConfigProvider    = (*Config)(nil)
	_ setup.NotifierConfigProvider    = (*Config)(nil)
	_ setup.ScrapeConfigProvider      = (*Config)(nil)
	_ setup.AuditConfigProvider       = (*Config)(nil)
	_ setup.ClassifierConfigProvider  = (*Config)(nil)
	_ setup.DetectorConfigProvider    = (*Config)(nil)
	_ setup.ReportCacheConfigProvider = (*Config)(nil)
)

const (
	SvcModeTypeCollect = "COLLECT"
	SvcModeTypeScrape  = "SCRAPE"
)

type Config struct {
	SvcModeType string `envconfig:"SIFT_SVC_MODE" default:"COLLECT"`
	SrvAddr     string `envconfig:"SIFT_ADDR" default:":8787"`
	Audit       audit.Config
	Collect     collect.Config
	Inspect     inspect.Config
	Database    database.Config
	Scrape      scrape.Config
	Classifier  classifier.Config
	Detector    detector.Config
	Notify      notify.Config
	ReportCache cache.Config
}

func (c Config) SvcMode() string {
	return c.SvcModeType
}

func (c Config) AuditConfig() *audit.Config {
	return &c.Audit
}

func (c Config) NotifyConfig() *notify.Config {
	return &c.Notify
}

func (c Config) ScrapeConfig() *scrape.Config {
	return &c.Scrape
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) ClassifierType() classifier.AlgType {
	return c.Classifier.Type
}

func (c Config) ClassifierConfig() *classifier.Config {
	return &c.Classifier
}

func (c Config) DetectorType() detector.AlgType {
	return c.Detector.Type
}

func (c Config) DetectorConfig() *detector.Config {
	return &c.Detector
}

func (c Config) ReportCacheConfig() *cache.Config {
	return &c.ReportCache
}
