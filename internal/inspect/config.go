package inspect

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIFT_INSPECT_REQUEST_TIMEOUT" default:"30s"`
	// Audits block until the pipeline finishes, so they get their own budget
	AuditTimeout time.Duration `envconfig:"SIFT_INSPECT_AUDIT_TIMEOUT" default:"10m"`
	MaxIssuesLen int           `envconfig:"SIFT_INSPECT_MAX_ISSUES_LEN" default:"100"`
}
