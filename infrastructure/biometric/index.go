package biometric

import (
	"context"
	"os"

	"likeness.io/infrastructure/biometric/types"
	"likeness.io/infrastructure/logger"
	"likeness.io/infrastructure/network"
	"likeness.io/infrastructure/resilience"
)

// NewEmbeddingOracle selects the oracle implementation once, at
// construction. FACE_ENGINE_MODE=mock swaps in the deterministic oracle.
func NewEmbeddingOracle() types.EmbeddingOracle {
	if os.Getenv("FACE_ENGINE_MODE") == "mock" {
		logger.Warning("using deterministic mock embedding oracle")
		return &MockOracle{}
	}
	return &FaceEngine{
		Network: &network.NetworkController{
			BaseUrl: os.Getenv("FACE_ENGINE_BASE_URL"),
		},
	}
}

// GuardedOracle wraps any oracle with the shared resilience policy:
// circuit breaker plus jittered retries. Embedding extraction is
// idempotent, so every engine error is retryable.
type GuardedOracle struct {
	Inner types.EmbeddingOracle
	Guard *resilience.Guard
}

func (g *GuardedOracle) DetectFaces(ctx context.Context, image []byte) ([]types.FaceDetection, error) {
	var faces []types.FaceDetection
	err := g.Guard.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		faces, opErr = g.Inner.DetectFaces(ctx, image)
		return opErr
	}, nil)
	if err != nil {
		return nil, err
	}
	return faces, nil
}
