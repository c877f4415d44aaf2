package notify

import (
	"encoding/json"
	"time"

	"github.com/go-sift/sift/internal/httputil"
)

type Config struct {
	AllowNotify          bool          `envconfig:"SIFT_ALLOW_NOTIFY" default:"true"`
	Targets              Targets       `envconfig:"SIFT_NOTIFY_TARGETS"`
	Interval             time.Duration `envconfig:"SIFT_NOTIFY_INTERVAL" default:"5s"`
	MaxConcurrentRequest int           `envconfig:"SIFT_NOTIFY_MAX_CONCURRENT_REQUEST" default:"64"`
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

// Target is one webhook destination, bound to a dataset.
type Target struct {
	URL        string                    `json:"url"`
	Dataset    string                    `json:"dataset"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}
