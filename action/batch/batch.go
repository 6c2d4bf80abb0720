// Package batch splits and de-duplicates slices.
package batch

// DefaultSize is the chunk size used when none is
// given. It keeps git argument lists well below shell
// limits.
const DefaultSize = 20

// Chunk splits items into consecutive slices of at
// most size elements. The last chunk may be shorter. A
// size <= 0 means DefaultSize.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultSize
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}

	return chunks
}

// Uniq returns items without duplicates, keeping the
// first occurrence order.
func Uniq[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}

		seen[it] = struct{}{}
		out = append(out, it)
	}

	return out
}
