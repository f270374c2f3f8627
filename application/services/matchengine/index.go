package matchengine

import (
	"context"
	"errors"

	service_types "likeness.io/application/services/types"
	"likeness.io/infrastructure/logger"
	"likeness.io/infrastructure/vectorindex"
)

// MatchEngine answers "which protected identity, if any, does this
// embedding belong to". It is stateless; all data lives in the index.
type MatchEngine struct {
	Index      vectorindex.Index
	Candidates int
}

func New(index vectorindex.Index, candidates int) *MatchEngine {
	return &MatchEngine{Index: index, Candidates: candidates}
}

// FindMatch returns the best candidate at or above threshold, or nil when
// nothing qualifies. Equal scores resolve to the lowest id so repeated
// calls with the same inputs always name the same identity.
func (engine *MatchEngine) FindMatch(ctx context.Context, embedding []float32, threshold float64) (*service_types.MatchResult, error) {
	entries, err := engine.Index.Search(ctx, embedding, engine.Candidates, threshold)
	if err != nil {
		if errors.Is(err, vectorindex.ErrDimensionMismatch) {
			return nil, err
		}
		logger.Error("vector search failed", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, service_types.ErrServiceUnavailable
	}
	if len(entries) == 0 {
		return nil, nil
	}

	// Resolve ties on the top score to the lowest id here rather than
	// trusting the store's ordering, so any Index backend yields the same
	// answer for the same inputs.
	best := entries[0]
	for _, entry := range entries[1:] {
		if entry.Score > best.Score || (entry.Score == best.Score && entry.ID < best.ID) {
			best = entry
		}
	}
	return &service_types.MatchResult{
		IdentityID: best.ID,
		Score:      best.Score,
		Rank:       1,
	}, nil
}

// FindCandidates exposes the full ranked neighborhood. Registration uses
// it for duplicate screening.
func (engine *MatchEngine) FindCandidates(ctx context.Context, embedding []float32, threshold float64) ([]vectorindex.Entry, error) {
	entries, err := engine.Index.Search(ctx, embedding, engine.Candidates, threshold)
	if err != nil {
		if errors.Is(err, vectorindex.ErrDimensionMismatch) {
			return nil, err
		}
		return nil, service_types.ErrServiceUnavailable
	}
	return entries, nil
}
