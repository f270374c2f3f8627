package biometric

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"likeness.io/infrastructure/biometric/types"
	"likeness.io/infrastructure/logger"
	"likeness.io/infrastructure/network"
)

// FaceEngine talks to the remote face-recognition engine. The engine does
// detection and embedding extraction; this client only validates and
// re-normalizes what comes back so the unit-norm invariant holds even if
// the engine drifts.
type FaceEngine struct {
	Network *network.NetworkController
}

type detectFacesRequest struct {
	Image string `json:"image"`
}

type detectFacesResponse struct {
	Success bool                  `json:"success"`
	Faces   []types.FaceDetection `json:"faces"`
	Error   *string               `json:"error"`
}

func (f *FaceEngine) DetectFaces(ctx context.Context, image []byte) ([]types.FaceDetection, error) {
	requestBody := detectFacesRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	}

	response, statusCode, err := f.Network.Post(ctx, "/detect-faces", map[string]string{}, requestBody)
	if err != nil {
		logger.Error("error calling face engine", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, types.ErrEngineUnavailable
	}

	if statusCode == nil || *statusCode != 200 {
		logger.Error("face engine responded with unexpected status code", logger.LoggerOptions{
			Key:  "status_code",
			Data: statusCode,
		})
		return nil, types.ErrEngineUnavailable
	}

	var result detectFacesResponse
	if err := json.Unmarshal(*response, &result); err != nil {
		logger.Error("error unmarshaling face engine response", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, types.ErrEngineUnavailable
	}
	if !result.Success {
		logger.Error("face engine reported failure", logger.LoggerOptions{
			Key:  "engine_error",
			Data: result.Error,
		})
		return nil, types.ErrEngineUnavailable
	}

	faces := make([]types.FaceDetection, 0, len(result.Faces))
	for _, face := range result.Faces {
		if len(face.Embedding) != types.EmbeddingDimension {
			return nil, fmt.Errorf("face engine returned embedding of dimension %d, want %d",
				len(face.Embedding), types.EmbeddingDimension)
		}
		if norm := CalculateNorm(face.Embedding); math.Abs(norm-1.0) > 1e-6 {
			face.Embedding = NormalizeEmbedding(face.Embedding)
		}
		faces = append(faces, face)
	}
	return faces, nil
}
