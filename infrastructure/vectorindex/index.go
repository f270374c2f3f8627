// Package vectorindex provides cosine-similarity search over the
// registered-identity embeddings. The interface is the store contract; the
// in-memory implementation serves a single process and is rehydrated from
// the identity collection on boot. A remote backend can be swapped in
// behind the same interface.
package vectorindex

import (
	"context"
	"errors"
)

// ErrIndexUnavailable signals the index backend cannot be reached. Callers
// must treat it as retryable, never as "no match".
var ErrIndexUnavailable = errors.New("vector index unavailable")

// ErrDimensionMismatch is returned when a vector's length differs from the
// index's configured dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Entry is a single search hit. Score is cosine similarity in [-1, 1];
// entries come back ordered by descending score.
type Entry struct {
	ID    string
	Score float64
}

// Index holds one vector per registered identity.
//
// All implementations must be safe for concurrent use: the index is shared
// across all verification and registration workers.
type Index interface {
	// Upsert adds or replaces the vector stored under id. Re-upserting
	// the same id is safe, which keeps retries idempotent.
	Upsert(ctx context.Context, id string, vector []float32) error

	// Delete removes the vector stored under id. Deleting a non-existent
	// id is a no-op, not an error.
	Delete(ctx context.Context, id string) error

	// Search returns up to k entries with score >= scoreThreshold,
	// ordered by descending score.
	Search(ctx context.Context, vector []float32, k int, scoreThreshold float64) ([]Entry, error)

	// Contains reports whether a vector is stored under id.
	Contains(ctx context.Context, id string) (bool, error)

	// IDs returns the ids of all stored vectors.
	IDs(ctx context.Context) ([]string, error)

	// Len returns the number of vectors in the index.
	Len() int
}
