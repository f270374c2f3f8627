package biometric

import "math"

// NormalizeEmbedding performs L2 normalization on an embedding. The zero
// vector is returned unchanged; callers treat it as unusable.
func NormalizeEmbedding(embedding []float32) []float32 {
	norm := 0.0
	for _, val := range embedding {
		norm += float64(val) * float64(val)
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return embedding
	}

	normalized := make([]float32, len(embedding))
	for i, val := range embedding {
		normalized[i] = float32(float64(val) / norm)
	}
	return normalized
}

// CalculateNorm calculates the L2 norm of an embedding.
func CalculateNorm(embedding []float32) float64 {
	norm := 0.0
	for _, val := range embedding {
		norm += float64(val) * float64(val)
	}
	return math.Sqrt(norm)
}

// CosineSimilarity calculates cosine similarity between two embeddings,
// clamped to [-1, 1]. Returns 0 on dimension mismatch or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dotProduct := 0.0
	normA := 0.0
	normB := 0.0
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1.0 {
		similarity = 1.0
	}
	if similarity < -1.0 {
		similarity = -1.0
	}
	return similarity
}
