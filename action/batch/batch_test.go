package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byte4ever/actionkit/action/batch"
)

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}

	return s
}

func TestChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{name: "empty", n: 0, size: 3, sizes: []int{}},
		{name: "exact", n: 40, size: 20, sizes: []int{20, 20}},
		{name: "remainder", n: 45, size: 20, sizes: []int{20, 20, 5}},
		{name: "default size", n: 21, size: 0, sizes: []int{20, 1}},
		{name: "smaller than size", n: 2, size: 5, sizes: []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chunks := batch.Chunk(seq(tt.n), tt.size)

			got := make([]int, 0, len(chunks))

			var flat []int

			for _, c := range chunks {
				got = append(got, len(c))
				flat = append(flat, c...)
			}

			assert.Equal(t, tt.sizes, got)

			if tt.n > 0 {
				assert.Equal(t, seq(tt.n), flat)
			}
		})
	}
}

func TestUniq(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		[]string{"b", "a", "c"},
		batch.Uniq([]string{"b", "a", "b", "c", "a"}),
	)
}
