package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	exampleDb "github.com/go-sift/sift/internal/example/database"
	"github.com/go-sift/sift/internal/example/model"
	"github.com/go-sift/sift/pkg/math/vector"
)

func auditedExample(dataset string, createdAt time.Time) model.Example {
	e := model.NewExample(dataset, vector.V{1, 1, 1, 1}, 0, createdAt, "test")
	e.Status = model.StatusAudited
	return e
}

func TestProcessOverSizeExamples(t *testing.T) {
	tests := []struct {
		name           string
		maxItemsStored int
		batch          []model.Example
		expectedErr    error
		expectedLen    int
	}{
		{
			name:           "positive_process_over_size_examples",
			maxItemsStored: 3,
			batch: []model.Example{
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
			},
			expectedLen: 3,
			expectedErr: nil,
		},
		{
			name:           "negative_process_over_size_examples",
			maxItemsStored: 3,
			batch: []model.Example{
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
			},
			expectedLen: 3,
			expectedErr: errors.New("test error"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			scheduler := &dbScheduler{opts: dbSchedulerConfig{
				maxItemsStored: test.maxItemsStored,
				deps: pullDependencies{
					fetchExamplesByDataset: func(s string, fn exampleDb.FilterFn) ([]model.Example, error) {
						return test.batch, test.expectedErr
					},
					deleteExamples: func(ctx context.Context, examples []model.Example) error {
						test.batch = test.batch[len(examples):]
						return test.expectedErr
					},
				},
			}}
			err := scheduler.processOverSizeExamples("test-data")
			if test.expectedErr != nil && err == nil {
				t.Errorf(
					"calling the processOverSizeExamples method, the error got: %v, expected: %v",
					err,
					test.expectedErr,
				)
			}
			if err == nil && len(test.batch) != test.expectedLen {
				t.Errorf(
					"calling the processOverSizeExamples method, the length of data got: %v, expected: %v",
					len(test.batch),
					test.expectedLen,
				)
			}
		})
	}
}

func TestProcessOutdatedExamples(t *testing.T) {
	tests := []struct {
		name           string
		maxStorageTime time.Duration
		batch          []model.Example
		expectedLen    int
	}{
		{
			name:           "positive_process_outdated_examples",
			maxStorageTime: time.Hour,
			batch: []model.Example{
				auditedExample("test-data", time.Now().Add(-2*time.Hour)),
				auditedExample("test-data", time.Now().Add(-3*time.Hour)),
				auditedExample("test-data", time.Now()),
			},
			expectedLen: 2,
		},
		{
			name:           "positive_process_outdated_examples_nothing_to_delete",
			maxStorageTime: time.Hour,
			batch: []model.Example{
				auditedExample("test-data", time.Now()),
				auditedExample("test-data", time.Now()),
			},
			expectedLen: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var deleted int
			scheduler := &dbScheduler{opts: dbSchedulerConfig{
				maxStorageTime: test.maxStorageTime,
				deps: pullDependencies{
					fetchExamplesByDataset: func(s string, fn exampleDb.FilterFn) ([]model.Example, error) {
						var filtered []model.Example
						for _, e := range test.batch {
							if fn(e) {
								filtered = append(filtered, e)
							}
						}
						return filtered, nil
					},
					deleteExamples: func(ctx context.Context, examples []model.Example) error {
						deleted = len(examples)
						return nil
					},
				},
			}}
			if err := scheduler.processOutdatedExamples("test-data"); err != nil {
				t.Fatalf("calling the processOutdatedExamples method, unexpected error: %v", err)
			}
			if deleted != test.expectedLen {
				t.Errorf(
					"calling the processOutdatedExamples method, the length of deleted data got: %v, expected: %v",
					deleted,
					test.expectedLen,
				)
			}
		})
	}
}
