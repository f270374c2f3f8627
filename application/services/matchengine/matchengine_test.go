package matchengine

import (
	"context"
	"math"
	"testing"

	"likeness.io/infrastructure/vectorindex"
)

func seedIndex(t *testing.T, vectors map[string][]float32) vectorindex.Index {
	t.Helper()
	idx := vectorindex.NewMemoryIndex(4)
	for id, vec := range vectors {
		if err := idx.Upsert(context.Background(), id, vec); err != nil {
			t.Fatalf("seeding %s failed: %v", id, err)
		}
	}
	return idx
}

func TestFindMatch_AboveThreshold(t *testing.T) {
	idx := seedIndex(t, map[string][]float32{
		"identity-a": {1, 0, 0, 0},
		"identity-b": {0, 1, 0, 0},
	})
	engine := New(idx, 5)

	result, err := engine.FindMatch(context.Background(), []float32{0.98, 0.05, 0, 0}, 0.70)
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected a match, got nil")
	}
	if result.IdentityID != "identity-a" {
		t.Errorf("expected identity-a, got %s", result.IdentityID)
	}
	if result.Score < 0.70 {
		t.Errorf("match score %f below threshold", result.Score)
	}
	if result.Rank != 1 {
		t.Errorf("expected rank 1, got %d", result.Rank)
	}
}

func TestFindMatch_BelowThresholdIsNoMatch(t *testing.T) {
	idx := seedIndex(t, map[string][]float32{
		"identity-a": {1, 0, 0, 0},
	})
	engine := New(idx, 5)

	// Roughly 45 degrees away: similarity ~0.71 against {1,0}, but this
	// query leans mostly on the other axes.
	result, err := engine.FindMatch(context.Background(), []float32{0.3, 0.9, 0.3, 0}, 0.70)
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if result != nil {
		t.Errorf("expected no match, got %+v", result)
	}
}

func TestFindMatch_ExactThresholdMatches(t *testing.T) {
	idx := seedIndex(t, map[string][]float32{
		"identity-a": {1, 0, 0, 0},
	})
	engine := New(idx, 5)

	// Self-query scores exactly 1.0; threshold 1.0 must still match
	// because the comparison is inclusive.
	result, err := engine.FindMatch(context.Background(), []float32{1, 0, 0, 0}, 1.0)
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if result == nil {
		t.Fatal("score equal to threshold should match")
	}
	if math.Abs(result.Score-1.0) > 1e-6 {
		t.Errorf("expected score 1.0, got %f", result.Score)
	}
}

func TestFindMatch_TieResolvesToLowestID(t *testing.T) {
	same := []float32{0, 0, 1, 0}
	idx := seedIndex(t, map[string][]float32{
		"zzz": same,
		"aaa": same,
		"mmm": same,
	})
	engine := New(idx, 5)

	for i := 0; i < 10; i++ {
		result, err := engine.FindMatch(context.Background(), same, 0.70)
		if err != nil {
			t.Fatalf("FindMatch failed: %v", err)
		}
		if result == nil || result.IdentityID != "aaa" {
			t.Fatalf("run %d: expected aaa, got %+v", i, result)
		}
	}
}

// fixedOrderIndex returns a canned result set verbatim, standing in for a
// backend that makes no promises about the ordering of equal scores.
type fixedOrderIndex struct {
	entries []vectorindex.Entry
}

func (f *fixedOrderIndex) Upsert(ctx context.Context, id string, vector []float32) error { return nil }
func (f *fixedOrderIndex) Delete(ctx context.Context, id string) error                   { return nil }
func (f *fixedOrderIndex) Search(ctx context.Context, vector []float32, k int, scoreThreshold float64) ([]vectorindex.Entry, error) {
	return f.entries, nil
}
func (f *fixedOrderIndex) Contains(ctx context.Context, id string) (bool, error) { return false, nil }
func (f *fixedOrderIndex) IDs(ctx context.Context) ([]string, error)             { return nil, nil }
func (f *fixedOrderIndex) Len() int                                              { return len(f.entries) }

func TestFindMatch_TieBreakIndependentOfStoreOrder(t *testing.T) {
	engine := New(&fixedOrderIndex{entries: []vectorindex.Entry{
		{ID: "zzz", Score: 0.9},
		{ID: "aaa", Score: 0.9},
	}}, 5)

	result, err := engine.FindMatch(context.Background(), []float32{0, 0, 1, 0}, 0.70)
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if result == nil || result.IdentityID != "aaa" {
		t.Fatalf("expected aaa regardless of store ordering, got %+v", result)
	}
}

func TestFindMatch_EmptyIndex(t *testing.T) {
	engine := New(vectorindex.NewMemoryIndex(4), 5)

	result, err := engine.FindMatch(context.Background(), []float32{1, 0, 0, 0}, 0.70)
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if result != nil {
		t.Errorf("expected no match on empty index, got %+v", result)
	}
}

func TestFindCandidates_OrderedDescending(t *testing.T) {
	idx := seedIndex(t, map[string][]float32{
		"close":   {0.95, 0.3, 0, 0},
		"closer":  {0.99, 0.1, 0, 0},
		"distant": {0.2, 0.97, 0, 0},
	})
	engine := New(idx, 5)

	entries, err := engine.FindCandidates(context.Background(), []float32{1, 0, 0, 0}, -1.0)
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Errorf("candidates out of order at %d: %f > %f", i, entries[i].Score, entries[i-1].Score)
		}
	}
	if entries[0].ID != "closer" {
		t.Errorf("expected closer first, got %s", entries[0].ID)
	}
}
