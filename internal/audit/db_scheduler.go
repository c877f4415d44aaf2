package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/internal/logging"
)

// Scheduler options
type dbSchedulerConfig struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
	deps           pullDependencies
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{opts: config}
}

// The scheduler is responsible for deleting old examples from the DB.
// It can maintain the required amount of data in the DB or delete old data
// depending on the configuration. Only audited examples are removed so
// nothing is dropped before it has been through a pipeline run.
type dbScheduler struct {
	opts dbSchedulerConfig
}

// processOutdatedExamples retrieves the audited examples of the dataset
// older than the storage limit and performs bulk deletion.
func (s *dbScheduler) processOutdatedExamples(dataset string) error {
	examples, err := s.opts.deps.fetchExamplesByDataset(dataset, func(e model.Example) bool {
		return e.IsAudited() && time.Since(e.CreatedAt) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable find examples by dataset %s: %v", dataset, err)
	}

	if err := s.opts.deps.deleteExamples(context.Background(), examples); err != nil {
		return fmt.Errorf("unable delete outdated examples of dataset %s: %v", dataset, err)
	}
	return nil
}

// processOverSizeExamples retrieves the audited examples of the dataset,
// sorts by creation date and deletes the oldest ones over the size limit.
func (s *dbScheduler) processOverSizeExamples(dataset string) error {
	examples, err := s.opts.deps.fetchExamplesByDataset(dataset, func(e model.Example) bool {
		return e.IsAudited()
	})
	if err != nil {
		return fmt.Errorf("unable find examples by dataset %s: %v", dataset, err)
	}

	if len(examples) <= s.opts.maxItemsStored {
		return nil
	}

	sort.Slice(examples, func(i, j int) bool {
		return examples[i].CreatedAt.UnixNano() < examples[j].CreatedAt.UnixNano()
	})

	if err := s.opts.deps.deleteExamples(context.Background(), examples[:len(examples)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete resizable examples of dataset %s: %v", dataset, err)
	}
	return nil
}

// rebuildOutdated gets all dataset keys and checks every dataset for
// outdated examples.
func (s *dbScheduler) rebuildOutdated() error {
	keys, err := s.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable to fetch dataset keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedExamples(keys[i]); err != nil {
			return fmt.Errorf("unable process examples: %v", err)
		}
	}
	return nil
}

// rebuildSize gets all dataset keys and checks every dataset for the
// number of stored examples.
func (s *dbScheduler) rebuildSize() error {
	keys, err := s.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		length, err := s.opts.deps.countByDataset(keys[i])
		if err != nil {
			return fmt.Errorf("unable count by dataset %s: %v", keys[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizeExamples(keys[i]); err != nil {
				return fmt.Errorf("unable process examples: %v", err)
			}
		}
	}
	return nil
}

// Scheduler for running data cleanup functions in the DB
func (s *dbScheduler) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
