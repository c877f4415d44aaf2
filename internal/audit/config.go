package audit

import (
	"time"

	"github.com/go-sift/sift/internal/report"
)

type Config struct {
	// Timer for performing data cleaning operations in the DB
	RebuildDBTime time.Duration `envconfig:"SIFT_AUDIT_REBUILD_DB_TIME" default:"15s"`
	// Timer for auditing every dataset that has grown past MinAuditSize. Zero disables the timer
	AuditTime time.Duration `envconfig:"SIFT_AUDIT_TIME" default:"0s"`
	// Minimum number of stored examples before a dataset can be audited
	MinAuditSize int `envconfig:"SIFT_AUDIT_MIN_SIZE" default:"50"`
	// maximum number of elements in the DB for each dataset
	MaxItemsStored int `envconfig:"SIFT_AUDIT_MAX_ITEMS_STORED" default:"1000000"`
	// maximum retention period for elements in the DB for each dataset
	MaxStorageTime time.Duration `envconfig:"SIFT_AUDIT_MAX_STORAGE_TIME" default:"0s"`
	// Critical buffer size in dbTxExecutor where data is flushed to disk
	DBFlushSize int `envconfig:"SIFT_DB_FLUSH_SIZE" default:"10"`
	// Critical time of life in dbTxExecutor buffer in which data to be flushed to disk
	DBFlushTime time.Duration `envconfig:"SIFT_DB_FLUSH_TIME" default:"5s"`

	// Pipeline knobs
	TestRatio   float64          `envconfig:"SIFT_AUDIT_TEST_RATIO" default:"0.2"`
	FoldsNum    int              `envconfig:"SIFT_AUDIT_FOLDS_NUM" default:"5"`
	Seed        int64            `envconfig:"SIFT_AUDIT_SEED" default:"42"`
	CleanMode   report.CleanMode `envconfig:"SIFT_AUDIT_CLEAN_MODE" default:"DROP"`
	TopFindings int              `envconfig:"SIFT_AUDIT_TOP_FINDINGS" default:"20"`
}
