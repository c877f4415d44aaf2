// Package report holds the audit outcome: accuracy before and after
// cleaning, issue counts per class and the worst findings.
package report

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-sift/sift/internal/detector"
)

type CleanMode string

const (
	CleanModeDrop    CleanMode = "DROP"
	CleanModeRelabel CleanMode = "RELABEL"
)

// ClassNoise is the estimated label noise of one class: how many examples
// carry the class as the given label and how many of those were flagged.
type ClassNoise struct {
	Class  int     `json:"class"`
	Given  int     `json:"given"`
	Issues int     `json:"issues"`
	Rate   float64 `json:"rate"`
}

type Report struct {
	Dataset          string             `json:"dataset"`
	CreatedAt        time.Time          `json:"createdAt"`
	Seed             int64              `json:"seed"`
	CleanMode        CleanMode          `json:"cleanMode"`
	Rows             int                `json:"rows"`
	TrainRows        int                `json:"trainRows"`
	TestRows         int                `json:"testRows"`
	CandidatesNum    int                `json:"candidatesNum"`
	IssuesNum        int                `json:"issuesNum"`
	BaselineAccuracy float64            `json:"baselineAccuracy"`
	CleanedAccuracy  float64            `json:"cleanedAccuracy"`
	NoiseByClass     []ClassNoise       `json:"noiseByClass"`
	Findings         []detector.Finding `json:"findings"`
}

// Render returns the report as an aligned text table.
func (r *Report) Render() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "dataset\t%s\n", r.Dataset)
	fmt.Fprintf(w, "rows\t%d (train %d / test %d)\n", r.Rows, r.TrainRows, r.TestRows)
	fmt.Fprintf(w, "clean mode\t%s\n", r.CleanMode)
	fmt.Fprintf(w, "label issues\t%d of %d candidates\n", r.IssuesNum, r.CandidatesNum)
	fmt.Fprintf(w, "test accuracy\t%.4f -> %.4f\n", r.BaselineAccuracy, r.CleanedAccuracy)
	_ = w.Flush()

	if len(r.NoiseByClass) > 0 {
		b.WriteString("\n")
		w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "class\tgiven\tissues\tnoise")
		for _, n := range r.NoiseByClass {
			fmt.Fprintf(w, "%d\t%d\t%d\t%.4f\n", n.Class, n.Given, n.Issues, n.Rate)
		}
		_ = w.Flush()
	}

	if len(r.Findings) > 0 {
		b.WriteString("\n")
		w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "index\tgiven\tsuggested\tscore\tissue")
		for _, f := range r.Findings {
			fmt.Fprintf(w, "%d\t%d\t%d\t%.4f\t%v\n", f.Index, f.GivenLabel, f.SuggestedLabel, f.Score, f.Issue)
		}
		_ = w.Flush()
	}
	return b.String()
}
