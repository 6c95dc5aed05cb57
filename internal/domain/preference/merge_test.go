package preference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		dst      map[string]any
		src      map[string]any
		expected map[string]any
	}{
		{
			name:     "disjoint keys combine",
			dst:      map[string]any{"a": 1},
			src:      map[string]any{"b": 2},
			expected: map[string]any{"a": 1, "b": 2},
		},
		{
			name:     "nested objects merge recursively",
			dst:      map[string]any{"a": map[string]any{"x": 1}},
			src:      map[string]any{"a": map[string]any{"y": 2}},
			expected: map[string]any{"a": map[string]any{"x": 1, "y": 2}},
		},
		{
			name:     "scalar overwrites object",
			dst:      map[string]any{"a": map[string]any{"x": 1}},
			src:      map[string]any{"a": "flat"},
			expected: map[string]any{"a": "flat"},
		},
		{
			name:     "object overwrites scalar",
			dst:      map[string]any{"a": "flat"},
			src:      map[string]any{"a": map[string]any{"x": 1}},
			expected: map[string]any{"a": map[string]any{"x": 1}},
		},
		{
			name:     "arrays overwrite wholesale",
			dst:      map[string]any{"tags": []any{"a", "b"}},
			src:      map[string]any{"tags": []any{"c"}},
			expected: map[string]any{"tags": []any{"c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Merge(tt.dst, tt.src))
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1}}
	src := map[string]any{"a": map[string]any{"y": 2}}

	Merge(dst, src)

	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1}}, dst)
	assert.Equal(t, map[string]any{"a": map[string]any{"y": 2}}, src)
}

func TestDeletePath(t *testing.T) {
	tests := []struct {
		name     string
		doc      map[string]any
		path     string
		expected map[string]any
	}{
		{
			name:     "top level key",
			doc:      map[string]any{"a": 1, "b": 2},
			path:     "a",
			expected: map[string]any{"b": 2},
		},
		{
			name:     "nested key",
			doc:      map[string]any{"a": map[string]any{"x": 1, "y": 2}},
			path:     "a.x",
			expected: map[string]any{"a": map[string]any{"y": 2}},
		},
		{
			name:     "missing leaf is a no-op",
			doc:      map[string]any{"a": 1},
			path:     "zzz",
			expected: map[string]any{"a": 1},
		},
		{
			name:     "missing intermediate is a no-op",
			doc:      map[string]any{"a": 1},
			path:     "b.c.d",
			expected: map[string]any{"a": 1},
		},
		{
			name:     "non-object intermediate is a no-op",
			doc:      map[string]any{"a": "scalar"},
			path:     "a.b",
			expected: map[string]any{"a": "scalar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			DeletePath(tt.doc, tt.path)
			assert.Equal(t, tt.expected, tt.doc)
		})
	}
}
