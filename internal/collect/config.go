package collect

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIFT_COLLECT_REQUEST_TIMEOUT" default:"60s"`
	// Payloads over this many examples are downsampled to exactly this size
	MaxDataItemsLen int `envconfig:"SIFT_COLLECT_MAX_DATA_ITEMS_LEN" default:"100000"`
}
