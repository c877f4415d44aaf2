package pqueue

import (
	"testing"
)

func TestPushOrder(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option[string]
		push     map[string]float64
		expected []string
	}{
		{
			name:     "asc_default",
			push:     map[string]float64{"b": 2, "a": 1, "c": 3},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "desc",
			opts:     []Option[string]{WithOrderDesc[string]()},
			push:     map[string]float64{"b": 2, "a": 1, "c": 3},
			expected: []string{"c", "b", "a"},
		},
		{
			name:     "capped_keeps_lowest",
			opts:     []Option[string]{WithCap[string](2)},
			push:     map[string]float64{"b": 2, "a": 1, "c": 3},
			expected: []string{"a", "b"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			q := New[string](test.opts...)
			// fixed push order so capped runs are deterministic
			for _, k := range []string{"b", "a", "c"} {
				q.Push(k, test.push[k])
			}
			got := q.PopAll()
			if len(got) != len(test.expected) {
				t.Fatalf("calling the PopAll method, the length got: %v, expected: %v", len(got), len(test.expected))
			}
			for i := range got {
				if got[i] != test.expected[i] {
					t.Errorf("calling the PopAll method, got: %v, expected: %v", got, test.expected)
					break
				}
			}
		})
	}
}

func TestHeadTail(t *testing.T) {
	q := New[int]()
	if _, ok := q.Head(); ok {
		t.Errorf("calling the Head method on empty queue, expected no value")
	}
	q.Push(10, 1.0)
	q.Push(20, 2.0)
	head, ok := q.Head()
	if !ok || head != 10 {
		t.Errorf("calling the Head method, got: %v, expected: %v", head, 10)
	}
	tail, ok := q.Tail()
	if !ok || tail != 20 {
		t.Errorf("calling the Tail method, got: %v, expected: %v", tail, 20)
	}
}
