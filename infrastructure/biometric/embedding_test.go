package biometric

import (
	"context"
	"math"
	"testing"

	"likeness.io/infrastructure/biometric/types"
)

func TestNormalizeEmbedding(t *testing.T) {
	tests := []struct {
		name      string
		embedding []float32
		wantUnit  bool
	}{
		{
			name:      "arbitrary vector",
			embedding: []float32{3, 4, 0, 0},
			wantUnit:  true,
		},
		{
			name:      "already normalized",
			embedding: []float32{1, 0, 0, 0},
			wantUnit:  true,
		},
		{
			name:      "negative components",
			embedding: []float32{-2, 5, -7, 1},
			wantUnit:  true,
		},
		{
			name:      "zero vector stays zero",
			embedding: []float32{0, 0, 0, 0},
			wantUnit:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized := NormalizeEmbedding(tt.embedding)
			norm := CalculateNorm(normalized)
			if tt.wantUnit {
				if math.Abs(norm-1.0) > 1e-6 {
					t.Errorf("expected unit norm, got %f", norm)
				}
			} else {
				if norm != 0 {
					t.Errorf("expected zero norm, got %f", norm)
				}
			}
		})
	}
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	a := NormalizeEmbedding([]float32{1, 2, 3, 4})
	b := NormalizeEmbedding([]float32{-4, 3, -2, 1})

	sim := CosineSimilarity(a, b)
	if sim < -1.0 || sim > 1.0 {
		t.Errorf("similarity %f outside [-1, 1]", sim)
	}

	self := CosineSimilarity(a, a)
	if math.Abs(self-1.0) > 1e-6 {
		t.Errorf("self-similarity = %f, want 1.0", self)
	}

	opposite := CosineSimilarity(a, NormalizeEmbedding([]float32{-1, -2, -3, -4}))
	if math.Abs(opposite-(-1.0)) > 1e-6 {
		t.Errorf("opposite-similarity = %f, want -1.0", opposite)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	if sim := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); sim != 0.0 {
		t.Errorf("expected 0.0 for dimension mismatch, got %f", sim)
	}
}

func TestMockOracle_Deterministic(t *testing.T) {
	oracle := &MockOracle{}
	image := []byte("the same capture bytes")

	first, err := oracle.DetectFaces(context.Background(), image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := oracle.DetectFaces(context.Background(), image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected exactly one detection, got %d and %d", len(first), len(second))
	}
	for i := range first[0].Embedding {
		if first[0].Embedding[i] != second[0].Embedding[i] {
			t.Fatal("mock oracle is not deterministic")
		}
	}

	if dim := len(first[0].Embedding); dim != types.EmbeddingDimension {
		t.Errorf("expected %d-dim embedding, got %d", types.EmbeddingDimension, dim)
	}
	if norm := CalculateNorm(first[0].Embedding); math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("mock embedding not unit-normalized, norm=%f", norm)
	}
}

func TestMockOracle_EmptyImage(t *testing.T) {
	oracle := &MockOracle{}
	faces, err := oracle.DetectFaces(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no detections for empty image, got %d", len(faces))
	}
}

func TestMockOracle_DistinctImagesDiverge(t *testing.T) {
	oracle := &MockOracle{}
	a, _ := oracle.DetectFaces(context.Background(), []byte("person A"))
	b, _ := oracle.DetectFaces(context.Background(), []byte("person B"))

	sim := CosineSimilarity(a[0].Embedding, b[0].Embedding)
	if sim > 0.5 {
		t.Errorf("unrelated images produced near-identical embeddings (similarity %f)", sim)
	}
}
