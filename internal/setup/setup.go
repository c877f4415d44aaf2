// Package setup turns a configuration struct into a wired service
// environment. Every concern is looked up through a small provider
// interface, so tests can pass in partial configs.
package setup

import (
	"context"
	"fmt"

	"github.com/go-sift/sift/internal/audit"
	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/classifier/knn"
	"github.com/go-sift/sift/internal/classifier/logreg"
	"github.com/go-sift/sift/internal/database"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/internal/detector/confident"
	"github.com/go-sift/sift/internal/logging"
	"github.com/go-sift/sift/internal/notify"
	"github.com/go-sift/sift/internal/report/cache"
	"github.com/go-sift/sift/internal/scrape"
	"github.com/go-sift/sift/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	SvcModeScrape  string = "SCRAPE"
	SvcModeCollect string = "COLLECT"
)

type SvcModeConfigProvider interface {
	SvcMode() string
}

type AuditConfigProvider interface {
	AuditConfig() *audit.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *notify.Config
}

type ScrapeConfigProvider interface {
	ScrapeConfig() *scrape.Config
}

type ClassifierConfigProvider interface {
	ClassifierConfig() *classifier.Config
	ClassifierType() classifier.AlgType
}

type DetectorConfigProvider interface {
	DetectorConfig() *detector.Config
	DetectorType() detector.AlgType
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type ReportCacheConfigProvider interface {
	ReportCacheConfig() *cache.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db                  *database.DB
		reports             cache.Cache
		classifierProvideFn classifier.ProvideFn
		detectorProvideFn   detector.ProvideFn
		notifierProvideFn   notify.ProvideFn
		auditorProvideFn    audit.ProvideFn
		scrapperProvideFn   scrape.ProvideFn
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("configuring db")
		if err := envconfig.Process("", dbConfigProvider.DatabaseConfig()); err != nil {
			return nil, fmt.Errorf("dont process db env: %w", err)
		}
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if cacheConfigProvider, ok := config.(ReportCacheConfigProvider); ok {
		logger.Info("configuring report cache")
		cfg := cacheConfigProvider.ReportCacheConfig()
		if err := envconfig.Process("", cfg); err != nil {
			return nil, fmt.Errorf("dont process report cache env: %w", err)
		}
		c, err := cache.New(*cfg)
		if err != nil {
			return nil, fmt.Errorf("unable create report cache: %v", err)
		}
		reports = c
		serverEnvOpts = append(serverEnvOpts, srvenv.WithReportCache(reports))
	}

	if notifyConfigProvider, ok := config.(NotifierConfigProvider); ok {
		logger.Info("configuring notifier")
		provideFn, err := ProvideNotifierFor(notifyConfigProvider, db)
		if err != nil {
			return nil, fmt.Errorf("unable create notifier provide function: %v", err)
		}
		notifierProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotifier(notifierProvideFn))
	}

	if classifierConfigProvider, ok := config.(ClassifierConfigProvider); ok {
		logger.Info("configuring classifier")
		cfg := classifierConfigProvider.ClassifierConfig()
		if err := envconfig.Process("", cfg); err != nil {
			return nil, fmt.Errorf("dont process classifier env: %w", err)
		}
		provideFn, err := ProvideClassifierFor(cfg)
		if err != nil {
			return nil, fmt.Errorf("unable create classifier provide function: %v", err)
		}
		classifierProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithClassifier(classifierProvideFn))
	}

	if detectorConfigProvider, ok := config.(DetectorConfigProvider); ok {
		logger.Info("configuring detector")
		cfg := detectorConfigProvider.DetectorConfig()
		if err := envconfig.Process("", cfg); err != nil {
			return nil, fmt.Errorf("dont process detector env: %w", err)
		}
		provideFn, err := ProvideDetectorFor(cfg)
		if err != nil {
			return nil, fmt.Errorf("unable create detector provide function: %v", err)
		}
		detectorProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDetector(detectorProvideFn))
	}

	if auditConfigProvider, ok := config.(AuditConfigProvider); ok {
		logger.Info("configuring audit manager")
		provideFn, err := ProvideAuditorFor(auditConfigProvider, classifierProvideFn, detectorProvideFn, reports, db)
		if err != nil {
			return nil, fmt.Errorf("unable create auditor provide function: %v", err)
		}
		auditorProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithAuditor(auditorProvideFn))
	}

	if svcModeConfigProvider, ok := config.(SvcModeConfigProvider); ok && svcModeConfigProvider.SvcMode() == SvcModeScrape {
		if scrapeConfigProvider, ok := config.(ScrapeConfigProvider); ok {
			logger.Info("configuring scrapper")
			provideFn, err := ProvideScrapperFor(scrapeConfigProvider)
			if err != nil {
				return nil, fmt.Errorf("unable create scrapper provide function: %v", err)
			}
			scrapperProvideFn = provideFn
			serverEnvOpts = append(serverEnvOpts, srvenv.WithScrapper(scrapperProvideFn))
		}
	}
	return srvenv.New(serverEnvOpts...), nil
}

func ProvideScrapperFor(provider ScrapeConfigProvider) (scrape.ProvideFn, error) {
	cfg := provider.ScrapeConfig()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("dont process scrapper env: %w", err)
	}
	return func(auditor audit.Manager, shutdownCh chan<- error) (scrape.Manager, error) {
		return scrape.New(
			auditor,
			shutdownCh,
			scrape.WithInterval(cfg.Interval),
			scrape.WithRequestTimeout(cfg.RequestTimeout),
			scrape.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			scrape.WithTargetUrls(cfg.Targets),
		)
	}, nil
}

func ProvideNotifierFor(provider NotifierConfigProvider, db *database.DB) (notify.ProvideFn, error) {
	cfg := provider.NotifyConfig()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("dont process notifier env: %w", err)
	}
	return func(shutdownCh chan<- error) (notify.Manager, error) {
		return notify.New(
			db,
			shutdownCh,
			notify.WithAllowNotify(cfg.AllowNotify),
			notify.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			notify.WithNotifyInterval(cfg.Interval),
			notify.WithTargets(cfg.Targets),
		)
	}, nil
}

func ProvideAuditorFor(
	provider AuditConfigProvider,
	provideClassifierFn classifier.ProvideFn,
	provideDetectorFn detector.ProvideFn,
	reports cache.Cache,
	db *database.DB,
) (audit.ProvideFn, error) {
	cfg := provider.AuditConfig()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("dont process audit env: %w", err)
	}
	return func(notifier notify.Manager, shutdownCh chan<- error) (audit.Manager, error) {
		pipeline, err := audit.NewPipeline(
			provideClassifierFn,
			provideDetectorFn,
			audit.WithTestRatio(cfg.TestRatio),
			audit.WithFoldsNum(cfg.FoldsNum),
			audit.WithSeed(cfg.Seed),
			audit.WithCleanMode(cfg.CleanMode),
			audit.WithTopFindings(cfg.TopFindings),
		)
		if err != nil {
			return nil, fmt.Errorf("unable create pipeline instance: %v", err)
		}
		return audit.New(
			db,
			pipeline,
			reports,
			notifier,
			shutdownCh,
			audit.WithRebuildDBTime(cfg.RebuildDBTime),
			audit.WithAuditTime(cfg.AuditTime),
			audit.WithMinAuditSize(cfg.MinAuditSize),
			audit.WithMaxItemsStored(cfg.MaxItemsStored),
			audit.WithMaxStorageTime(cfg.MaxStorageTime),
			audit.WithDBFlushSize(cfg.DBFlushSize),
			audit.WithDBFlushTime(cfg.DBFlushTime),
		)
	}, nil
}

func ProvideClassifierFor(cfg *classifier.Config) (classifier.ProvideFn, error) {
	switch cfg.ClassifierType() {
	case classifier.AlgTypeLogReg:
		cfgLogReg := logreg.Config{}
		if err := envconfig.Process("", &cfgLogReg); err != nil {
			return nil, fmt.Errorf("error loading environment variables: %w", err)
		}
		return func() (classifier.Classifier, error) {
			l, err := logreg.New(
				logreg.WithLearningRate(cfgLogReg.LearningRate),
				logreg.WithEpochs(cfgLogReg.Epochs),
				logreg.WithBatchSize(cfgLogReg.BatchSize),
				logreg.WithL2(cfgLogReg.L2),
				logreg.WithSeed(cfgLogReg.Seed),
			)
			if err != nil {
				return nil, fmt.Errorf("unable create logreg instance: %v", err)
			}
			return l, nil
		}, nil
	case classifier.AlgTypeKNN:
		cfgKNN := knn.Config{}
		if err := envconfig.Process("", &cfgKNN); err != nil {
			return nil, fmt.Errorf("error loading environment variables: %w", err)
		}
		distFunc, err := knn.DistanceFuncFor(cfgKNN.MetricFuncType)
		if err != nil {
			return nil, fmt.Errorf("unable provide distance function: %v", err)
		}
		return func() (classifier.Classifier, error) {
			k, err := knn.New(
				knn.WithKNum(cfgKNN.KNum),
				knn.WithDistance(distFunc),
				knn.WithAlg(cfgKNN.AlgType),
			)
			if err != nil {
				return nil, fmt.Errorf("unable create knn instance: %v", err)
			}
			return k, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.ClassifierType())
	}
}

func ProvideDetectorFor(cfg *detector.Config) (detector.ProvideFn, error) {
	switch cfg.DetectorType() {
	case detector.AlgTypeConfident:
		cfgConfident := confident.Config{}
		if err := envconfig.Process("", &cfgConfident); err != nil {
			return nil, fmt.Errorf("error loading environment variables: %w", err)
		}
		return func() (detector.Detector, error) {
			c, err := confident.New(
				confident.WithScoreMethod(cfgConfident.ScoreMethod),
				confident.WithFilterMethod(cfgConfident.FilterMethod),
			)
			if err != nil {
				return nil, fmt.Errorf("unable create confident instance: %v", err)
			}
			return c, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown detector type: %s", cfg.DetectorType())
	}
}
