package vectorindex

import (
	"context"
	"errors"

	"likeness.io/infrastructure/resilience"
)

// Guarded wraps an Index with the shared resilience policy. Search is a
// pure read and upsert/delete are idempotent by id, so every backend
// failure is retryable; dimension mismatches are caller bugs and are not.
type Guarded struct {
	Inner Index
	Guard *resilience.Guard
}

func retryable(err error) bool {
	return !errors.Is(err, ErrDimensionMismatch)
}

func (g *Guarded) Upsert(ctx context.Context, id string, vector []float32) error {
	return g.Guard.Execute(ctx, func(ctx context.Context) error {
		return g.Inner.Upsert(ctx, id, vector)
	}, retryable)
}

func (g *Guarded) Delete(ctx context.Context, id string) error {
	return g.Guard.Execute(ctx, func(ctx context.Context) error {
		return g.Inner.Delete(ctx, id)
	}, retryable)
}

func (g *Guarded) Search(ctx context.Context, vector []float32, k int, scoreThreshold float64) ([]Entry, error) {
	var entries []Entry
	err := g.Guard.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		entries, opErr = g.Inner.Search(ctx, vector, k, scoreThreshold)
		return opErr
	}, retryable)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *Guarded) Contains(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := g.Guard.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		ok, opErr = g.Inner.Contains(ctx, id)
		return opErr
	}, retryable)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (g *Guarded) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := g.Guard.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		ids, opErr = g.Inner.IDs(ctx)
		return opErr
	}, retryable)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (g *Guarded) Len() int {
	return g.Inner.Len()
}
