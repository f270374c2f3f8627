package repository

import (
	"context"
	"time"

	"likeness.io/entities"
)

// IdentityStoreAdapter exposes the identity collection through the narrow
// interface the pipeline services consume.
type IdentityStoreAdapter struct{}

func (IdentityStoreAdapter) Get(ctx context.Context, id string) (*entities.Identity, error) {
	identity, err := IdentityRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity == nil || identity.DeletedAt != nil {
		return nil, nil
	}
	return identity, nil
}

func (IdentityStoreAdapter) Save(ctx context.Context, identity *entities.Identity) error {
	existing, err := IdentityRepo().FindByID(ctx, identity.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err = IdentityRepo().CreateOne(ctx, *identity)
		return err
	}
	identity.CreatedAt = existing.CreatedAt
	return IdentityRepo().UpdateByID(ctx, identity.ID, *identity)
}

func (IdentityStoreAdapter) SoftDelete(ctx context.Context, id string, reason string) error {
	return IdentityRepo().UpdatePartialByID(ctx, id, map[string]interface{}{
		"deletedAt":     time.Now(),
		"deletedReason": reason,
	})
}

func (IdentityStoreAdapter) ListVerified(ctx context.Context) ([]entities.Identity, error) {
	return IdentityRepo().FindMany(ctx, map[string]interface{}{
		"status":    entities.IdentityStatusVerified,
		"deletedAt": nil,
	})
}

// VerificationRecordStoreAdapter appends rows to the audit collection.
type VerificationRecordStoreAdapter struct{}

func (VerificationRecordStoreAdapter) Append(ctx context.Context, record entities.VerificationRecord) error {
	_, err := VerificationRecordRepo().CreateOne(ctx, record)
	return err
}
