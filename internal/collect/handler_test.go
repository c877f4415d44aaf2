package collect

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-sift/sift/internal/example/model"
)

type fakeCollector struct {
	mtx      sync.Mutex
	examples []model.Example
}

func (f *fakeCollector) Collect(in ...model.Example) error {
	f.mtx.Lock()
	f.examples = append(f.examples, in...)
	f.mtx.Unlock()
	return nil
}

func (f *fakeCollector) len() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return len(f.examples)
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		contentType  string
		body         string
		expectedCode int
		expectedLen  int
	}{
		{
			name:         "positive_collect",
			method:       http.MethodPost,
			contentType:  "application/json",
			body:         `{"dataset": "test-data", "data": [{"vector": [1, 2], "label": 0}, {"vector": [3, 4], "label": 1}]}`,
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name:         "negative_method_not_allowed",
			method:       http.MethodGet,
			contentType:  "application/json",
			body:         `{}`,
			expectedCode: http.StatusMethodNotAllowed,
		},
		{
			name:         "negative_wrong_content_type",
			method:       http.MethodPost,
			contentType:  "text/plain",
			body:         `{}`,
			expectedCode: http.StatusUnsupportedMediaType,
		},
		{
			name:         "negative_empty_dataset",
			method:       http.MethodPost,
			contentType:  "application/json",
			body:         `{"data": [{"vector": [1, 2], "label": 0}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "negative_malformed_json",
			method:       http.MethodPost,
			contentType:  "application/json",
			body:         `{"dataset": `,
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			collector := &fakeCollector{}
			h, err := NewHandler(&Config{RequestTimeout: time.Second, MaxDataItemsLen: 100}, collector)
			if err != nil {
				t.Fatalf("calling the NewHandler function, unexpected error: %v", err)
			}
			w := httptest.NewRecorder()
			r := httptest.NewRequest(test.method, "/collect", strings.NewReader(test.body))
			r.Header.Set("content-type", test.contentType)
			h.ServeHTTP(w, r)

			if w.Code != test.expectedCode {
				t.Fatalf("response code got: %d, expected: %d, body: %s", w.Code, test.expectedCode, w.Body.String())
			}
			if test.expectedLen == 0 {
				return
			}
			deadline := time.After(2 * time.Second)
			for collector.len() != test.expectedLen {
				select {
				case <-deadline:
					t.Fatalf("collected examples num got: %d, expected: %d", collector.len(), test.expectedLen)
				case <-time.After(10 * time.Millisecond):
				}
			}
		})
	}
}

func TestDownsample(t *testing.T) {
	data := make([]item, 100)
	for i := range data {
		data[i] = item{Label: i}
	}
	sampled := downsample(data, 10)
	if len(sampled) != 10 {
		t.Errorf("downsampled length got: %d, expected: %d", len(sampled), 10)
	}
	if got := downsample(data, 1000); len(got) != len(data) {
		t.Errorf("downsample below the limit got: %d items, expected untouched %d", len(got), len(data))
	}
	if got := downsample(data, 0); len(got) != len(data) {
		t.Errorf("downsample with zero limit got: %d items, expected untouched %d", len(got), len(data))
	}
}
