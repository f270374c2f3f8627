package biometric

import (
	"context"
	"crypto/sha512"
	"encoding/binary"

	"likeness.io/infrastructure/biometric/types"
)

// MockOracle derives one face deterministically from the image bytes:
// identical bytes always yield the identical embedding, which is what the
// idempotent-verification property needs in dev and test environments.
// Empty input yields no detections.
type MockOracle struct{}

func (m *MockOracle) DetectFaces(ctx context.Context, image []byte) ([]types.FaceDetection, error) {
	if len(image) == 0 {
		return []types.FaceDetection{}, nil
	}

	embedding := make([]float32, types.EmbeddingDimension)
	seed := sha512.Sum512(image)
	block := seed[:]
	for i := 0; i < types.EmbeddingDimension; i++ {
		if i > 0 && i%16 == 0 {
			next := sha512.Sum512(block)
			block = next[:]
		}
		bits := binary.BigEndian.Uint32(block[(i%16)*4 : (i%16)*4+4])
		// Map to [-1, 1) before normalization.
		embedding[i] = float32(int64(bits)-1<<31) / float32(1<<31)
	}
	embedding = NormalizeEmbedding(embedding)

	confidence := 0.75 + float64(seed[0])/255.0*0.25

	return []types.FaceDetection{{
		Embedding:  embedding,
		Confidence: confidence,
		Box:        types.BoundingBox{X: 0, Y: 0, Width: 112, Height: 112},
	}}, nil
}
