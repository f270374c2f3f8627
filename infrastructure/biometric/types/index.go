package types

import (
	"context"
	"errors"
)

// EmbeddingDimension is the fixed length of face embeddings across the
// pipeline. Every stored or compared vector has exactly this many
// components and unit L2 norm.
const EmbeddingDimension = 512

// ErrEngineUnavailable signals the face engine could not be reached or
// answered abnormally. Always retryable; never to be confused with "no
// face found".
var ErrEngineUnavailable = errors.New("face engine unavailable")

type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// FaceDetection is one detected face: its unit-normalized embedding, the
// detector's confidence, and where in the frame it sits. Detections are
// returned in the engine's detection order, which downstream preserves.
type FaceDetection struct {
	Embedding  []float32   `json:"embedding"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"bounding_box"`
}

// EmbeddingOracle maps raw image bytes to detected faces. Implementations
// are selected at construction time (remote engine or deterministic mock),
// never branched on at call time.
type EmbeddingOracle interface {
	DetectFaces(ctx context.Context, image []byte) ([]FaceDetection, error)
}
