package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/internal/httputil"
)

type csvLoader struct {
	opts Options
}

func newCSVLoader(opts Options) *csvLoader {
	return &csvLoader{opts: opts}
}

func (l *csvLoader) Load(ctx context.Context, source string) (*dataset.Dataset, error) {
	rc, err := openSource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("unable open csv source: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("unable read csv header: %w", err)
	}
	labelIdx := len(header) - 1
	if l.opts.LabelColumn != "" {
		labelIdx = -1
		for i, name := range header {
			if name == l.opts.LabelColumn {
				labelIdx = i
				break
			}
		}
		if labelIdx < 0 {
			return nil, fmt.Errorf("label column %s not found in csv header", l.opts.LabelColumn)
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable read csv records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv source %s has no data rows", source)
	}

	featureNames := make([]string, 0, len(header)-1)
	featureIdx := make([]int, 0, len(header)-1)
	for i, name := range header {
		if i == labelIdx {
			continue
		}
		featureNames = append(featureNames, name)
		featureIdx = append(featureIdx, i)
	}

	// Columns that fail to parse as float on any row are treated as
	// categorical and index-encoded over a sorted vocabulary, so the same
	// file always encodes the same way.
	categorical := make([]map[string]int, len(featureIdx))
	for ci, col := range featureIdx {
		numeric := true
		for _, rec := range records {
			if _, err := strconv.ParseFloat(rec[col], 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric {
			continue
		}
		categorical[ci] = vocabularyOf(records, col)
	}

	labels := vocabularyOf(records, labelIdx)

	rows := make([][]float64, len(records))
	y := make([]int, len(records))
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("csv row %d has %d fields, expected %d", i, len(rec), len(header))
		}
		row := make([]float64, len(featureIdx))
		for ci, col := range featureIdx {
			if categorical[ci] != nil {
				row[ci] = float64(categorical[ci][rec[col]])
				continue
			}
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("unable parse csv row %d column %s: %w", i, header[col], err)
			}
			row[ci] = v
		}
		rows[i] = row
		y[i] = labels[rec[labelIdx]]
	}

	scaleRows(rows, l.opts.Scaling)

	name := l.opts.Name
	if name == "" {
		name = nameOf(source)
	}
	d, err := dataset.New(name, rows, y)
	if err != nil {
		return nil, fmt.Errorf("unable build dataset from csv: %w", err)
	}
	d.FeatureNames = featureNames
	return d, nil
}

func vocabularyOf(records [][]string, col int) map[string]int {
	seen := make(map[string]struct{})
	for _, rec := range records {
		seen[rec[col]] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	vocab := make(map[string]int, len(values))
	for i, v := range values {
		vocab[v] = i
	}
	return vocab
}

func scaleRows(rows [][]float64, s ScalingType) {
	if s == ScalingTypeNone || len(rows) == 0 {
		return
	}
	dims := len(rows[0])
	switch s {
	case ScalingTypeMinMax:
		for j := 0; j < dims; j++ {
			lo, hi := rows[0][j], rows[0][j]
			for i := range rows {
				lo = math.Min(lo, rows[i][j])
				hi = math.Max(hi, rows[i][j])
			}
			if hi == lo {
				continue
			}
			for i := range rows {
				rows[i][j] = (rows[i][j] - lo) / (hi - lo)
			}
		}
	case ScalingTypeZScore:
		for j := 0; j < dims; j++ {
			var mean float64
			for i := range rows {
				mean += rows[i][j]
			}
			mean /= float64(len(rows))
			var variance float64
			for i := range rows {
				d := rows[i][j] - mean
				variance += d * d
			}
			variance /= float64(len(rows))
			sd := math.Sqrt(variance)
			if sd == 0 {
				continue
			}
			for i := range rows {
				rows[i][j] = (rows[i][j] - mean) / sd
			}
		}
	}
}

func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client, err := httputil.NewClientFromConfig(httputil.HTTPClientConfig{}, true)
		if err != nil {
			return nil, fmt.Errorf("unable create http client: %v", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("unable create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("unable fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unable fetch %s: status %d", source, resp.StatusCode)
		}
		return resp.Body, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("unable open %s: %w", source, err)
	}
	return f, nil
}

func nameOf(source string) string {
	name := source
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
