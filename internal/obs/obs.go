// Package obs holds the opencensus measures and views of the service.
package obs

import (
	"fmt"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	CollectedExamples = stats.Int64("sift/collect/examples", "number of collected examples", stats.UnitDimensionless)
	AuditsRun         = stats.Int64("sift/audit/runs", "number of audits run", stats.UnitDimensionless)
	IssuesFound       = stats.Int64("sift/audit/issues", "number of label issues found", stats.UnitDimensionless)
	AuditDuration     = stats.Float64("sift/audit/duration", "audit duration", stats.UnitMilliseconds)
)

// KeyDataset tags audit measures with the dataset they were recorded for.
var KeyDataset = tag.MustNewKey("dataset")

var views = []*view.View{
	{
		Name:        "sift/collect/examples",
		Description: "collected examples",
		Measure:     CollectedExamples,
		Aggregation: view.Sum(),
	},
	{
		Name:        "sift/audit/runs",
		Description: "audits run",
		Measure:     AuditsRun,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Count(),
	},
	{
		Name:        "sift/audit/issues",
		Description: "label issues found",
		Measure:     IssuesFound,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Sum(),
	},
	{
		Name:        "sift/audit/duration",
		Description: "audit duration",
		Measure:     AuditDuration,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Distribution(100, 500, 1000, 5000, 15000, 60000),
	},
}

func RegisterViews() error {
	if err := view.Register(views...); err != nil {
		return fmt.Errorf("unable register views: %w", err)
	}
	return nil
}
