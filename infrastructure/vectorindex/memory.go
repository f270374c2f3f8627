package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force in-memory index. Vectors are unit-normalized
// on the way in so search is a plain dot product.
type MemoryIndex struct {
	dimension int

	mutex   sync.RWMutex
	vectors map[string][]float32
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}
}

func (m *MemoryIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	if len(vector) != m.dimension {
		return ErrDimensionMismatch
	}

	normalized := normalize(vector)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.vectors[id] = normalized
	return nil
}

func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.vectors, id)
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int, scoreThreshold float64) ([]Entry, error) {
	if len(vector) != m.dimension {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 {
		return []Entry{}, nil
	}

	query := normalize(vector)

	m.mutex.RLock()
	entries := make([]Entry, 0, len(m.vectors))
	for id, stored := range m.vectors {
		score := dot(query, stored)
		if score >= scoreThreshold {
			entries = append(entries, Entry{ID: id, Score: score})
		}
	}
	m.mutex.RUnlock()

	// Descending by score; equal scores break ties by ascending id so
	// results are deterministic regardless of map iteration order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

func (m *MemoryIndex) Contains(ctx context.Context, id string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.vectors[id]
	return ok, nil
}

func (m *MemoryIndex) IDs(ctx context.Context) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ids := make([]string, 0, len(m.vectors))
	for id := range m.vectors {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryIndex) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.vectors)
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	// Guard against float drift past the cosine bounds.
	if sum > 1.0 {
		sum = 1.0
	}
	if sum < -1.0 {
		sum = -1.0
	}
	return sum
}

func normalize(vector []float32) []float32 {
	norm := 0.0
	for _, val := range vector {
		norm += float64(val) * float64(val)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}

	normalized := make([]float32, len(vector))
	for i, val := range vector {
		normalized[i] = float32(float64(val) / norm)
	}
	return normalized
}
