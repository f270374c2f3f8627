package registration

import (
	"context"
	"errors"
	"fmt"

	"likeness.io/application/services/matchengine"
	service_types "likeness.io/application/services/types"
	"likeness.io/application/utils"
	"likeness.io/entities"
	biometric_types "likeness.io/infrastructure/biometric/types"
	"likeness.io/infrastructure/locks"
	"likeness.io/infrastructure/logger"
	"likeness.io/infrastructure/vectorindex"
)

// ReconcileScheduler enqueues an index reconciliation sweep. Registration
// falls back to it whenever the store and the index may have diverged.
type ReconcileScheduler interface {
	ScheduleIndexReconciliation(ctx context.Context, reason string) error
}

// RegistrationService takes a creator through enrollment: face extraction,
// liveness gating, duplicate screening under a regional lock, and the
// store-then-index commit.
type RegistrationService struct {
	Oracle     biometric_types.EmbeddingOracle
	Engine     *matchengine.MatchEngine
	Index      vectorindex.Index
	Identities service_types.IdentityStore
	Locker     locks.Locker
	Scheduler  ReconcileScheduler
	Config     service_types.PipelineConfig
}

type RegisterPayload struct {
	OwnerID     string
	DisplayName string
	Image       []byte
	// SecondaryImage optionally supplies a second angle. Its embedding is
	// stored on the identity but never indexed; only the primary matches.
	SecondaryImage []byte
	Policy         entities.UsagePolicy
	Pricing        entities.Pricing
}

// Register enrolls a new identity. On success the returned identity is
// VERIFIED and searchable. Deterministic rejections come back as
// ErrFaceNotDetected, ErrLivenessCheckFailed, or DuplicateIdentityError;
// anything transient is ErrServiceUnavailable.
func (service *RegistrationService) Register(ctx context.Context, payload RegisterPayload) (*entities.Identity, error) {
	detections, err := service.Oracle.DetectFaces(ctx, payload.Image)
	if err != nil {
		logger.Error("face extraction failed during registration", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "ownerID",
			Data: payload.OwnerID,
		})
		return nil, service_types.ErrServiceUnavailable
	}
	if len(detections) == 0 {
		return nil, service_types.ErrFaceNotDetected
	}

	face := selectPrimaryFace(detections)

	identity := entities.Identity{
		OwnerID:       payload.OwnerID,
		DisplayName:   payload.DisplayName,
		Embedding:     face.Embedding,
		Status:        entities.IdentityStatusPending,
		Policy:        payload.Policy,
		Pricing:       payload.Pricing,
		LivenessScore: face.Confidence,
		ID:            utils.GenerateULIDString(),
	}

	if face.Confidence < service.Config.LivenessThreshold {
		identity.Status = entities.IdentityStatusRejected
		identity.ReviewReason = utils.GetStringPointer(fmt.Sprintf(
			"liveness score %.2f below required %.2f", face.Confidence, service.Config.LivenessThreshold))
		if saveErr := service.Identities.Save(ctx, &identity); saveErr != nil {
			logger.Error("failed recording rejected registration", logger.LoggerOptions{
				Key:  "error",
				Data: saveErr,
			})
		}
		return nil, service_types.ErrLivenessCheckFailed
	}

	// Concurrent registrations of near-identical faces land in the same
	// sign bucket, so the duplicate check and the commit happen under one
	// lock. A dead lock backend degrades to a post-hoc sweep instead of
	// refusing enrollment.
	lock, lockErr := service.Locker.TryAcquire(ctx, signBucket(face.Embedding),
		service.Config.RegistrationLockTTL, service.Config.LockAcquireTimeout)
	if lockErr != nil {
		logger.Warning("registration proceeding without bucket lock", logger.LoggerOptions{
			Key:  "error",
			Data: lockErr,
		})
		if service.Scheduler != nil {
			if scheduleErr := service.Scheduler.ScheduleIndexReconciliation(ctx, "registration without bucket lock"); scheduleErr != nil {
				logger.Error("failed scheduling reconciliation sweep", logger.LoggerOptions{
					Key:  "error",
					Data: scheduleErr,
				})
			}
		}
	} else {
		defer func() {
			if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, locks.ErrLockNotHeld) {
				logger.Warning("failed releasing registration lock", logger.LoggerOptions{
					Key:  "error",
					Data: releaseErr,
				})
			}
		}()
	}

	candidates, err := service.Engine.FindCandidates(ctx, face.Embedding, service.Config.DuplicateThreshold)
	if err != nil {
		return nil, service_types.ErrServiceUnavailable
	}
	if len(candidates) > 0 {
		existing := candidates[0]
		identity.Status = entities.IdentityStatusRejected
		identity.ReviewReason = utils.GetStringPointer(fmt.Sprintf(
			"duplicate of %s at similarity %.4f", existing.ID, existing.Score))
		if saveErr := service.Identities.Save(ctx, &identity); saveErr != nil {
			logger.Error("failed recording rejected registration", logger.LoggerOptions{
				Key:  "error",
				Data: saveErr,
			})
		}
		return nil, &service_types.DuplicateIdentityError{ExistingID: existing.ID, Score: existing.Score}
	}

	if len(payload.SecondaryImage) > 0 {
		identity.EmbeddingBackup = service.extractBackupEmbedding(ctx, payload.SecondaryImage)
	}

	// Store first, then index. A crash between the two leaves a PROCESSING
	// identity the reconciliation sweep can finish or roll back. The commit
	// runs detached from the caller's cancellation: once we start writing,
	// a client disconnect must not strand the identity mid-commit.
	commitCtx := context.WithoutCancel(ctx)

	identity.Status = entities.IdentityStatusProcessing
	if err := service.Identities.Save(commitCtx, &identity); err != nil {
		logger.Error("failed persisting identity", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "identityID",
			Data: identity.ID,
		})
		return nil, service_types.ErrServiceUnavailable
	}

	if err := service.Index.Upsert(commitCtx, identity.ID, face.Embedding); err != nil {
		logger.Error("index commit failed, identity left in PROCESSING", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "identityID",
			Data: identity.ID,
		})
		if service.Scheduler != nil {
			if scheduleErr := service.Scheduler.ScheduleIndexReconciliation(commitCtx, "index commit failed for "+identity.ID); scheduleErr != nil {
				logger.Error("failed scheduling reconciliation sweep", logger.LoggerOptions{
					Key:  "error",
					Data: scheduleErr,
				})
			}
		}
		return nil, service_types.ErrServiceUnavailable
	}

	identity.Status = entities.IdentityStatusVerified
	if err := service.Identities.Save(commitCtx, &identity); err != nil {
		// The vector is live but the doc says PROCESSING. The sweep
		// promotes it once the store recovers.
		logger.Error("failed promoting identity to VERIFIED", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "identityID",
			Data: identity.ID,
		})
		return nil, service_types.ErrServiceUnavailable
	}

	logger.Info("identity registered", logger.LoggerOptions{
		Key:  "identityID",
		Data: identity.ID,
	}, logger.LoggerOptions{
		Key:  "livenessScore",
		Data: identity.LivenessScore,
	})
	return &identity, nil
}

// Revoke soft-deletes an identity and removes its vector so it stops
// matching immediately.
func (service *RegistrationService) Revoke(ctx context.Context, identityID string, reason string) error {
	identity, err := service.Identities.Get(ctx, identityID)
	if err != nil {
		return service_types.ErrServiceUnavailable
	}
	if identity == nil {
		return service_types.ErrIdentityNotFound
	}

	if err := service.Identities.SoftDelete(ctx, identityID, reason); err != nil {
		return service_types.ErrServiceUnavailable
	}

	if err := service.Index.Delete(ctx, identityID); err != nil {
		// The doc is gone but the vector lingers. The sweep removes
		// orphan vectors, so schedule one rather than failing the revoke.
		logger.Error("failed deleting vector for revoked identity", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "identityID",
			Data: identityID,
		})
		if service.Scheduler != nil {
			if scheduleErr := service.Scheduler.ScheduleIndexReconciliation(ctx, "vector delete failed for "+identityID); scheduleErr != nil {
				logger.Error("failed scheduling reconciliation sweep", logger.LoggerOptions{
					Key:  "error",
					Data: scheduleErr,
				})
			}
		}
	}

	logger.Info("identity revoked", logger.LoggerOptions{
		Key:  "identityID",
		Data: identityID,
	}, logger.LoggerOptions{
		Key:  "reason",
		Data: reason,
	})
	return nil
}

// RehydrateIndex loads every verified identity's embedding into the index.
// Called at startup before the server accepts traffic.
func (service *RegistrationService) RehydrateIndex(ctx context.Context) (int, error) {
	identities, err := service.Identities.ListVerified(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, identity := range identities {
		if err := service.Index.Upsert(ctx, identity.ID, identity.Embedding); err != nil {
			logger.Error("failed loading embedding into index", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			}, logger.LoggerOptions{
				Key:  "identityID",
				Data: identity.ID,
			})
			continue
		}
		loaded++
	}

	logger.Info("vector index rehydrated", logger.LoggerOptions{
		Key:  "loaded",
		Data: loaded,
	}, logger.LoggerOptions{
		Key:  "total",
		Data: len(identities),
	})
	return loaded, nil
}

// extractBackupEmbedding is best effort. A failed secondary extraction
// costs the creator the backup angle, never the registration.
func (service *RegistrationService) extractBackupEmbedding(ctx context.Context, image []byte) []float32 {
	detections, err := service.Oracle.DetectFaces(ctx, image)
	if err != nil || len(detections) == 0 {
		logger.Warning("secondary image yielded no usable face, skipping backup embedding", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil
	}
	return selectPrimaryFace(detections).Embedding
}

// selectPrimaryFace picks the largest face by bounding box area. Ties keep
// the earlier detection.
func selectPrimaryFace(detections []biometric_types.FaceDetection) biometric_types.FaceDetection {
	primary := detections[0]
	for _, detection := range detections[1:] {
		if detection.Box.Area() > primary.Box.Area() {
			primary = detection
		}
	}
	return primary
}

// signBucket maps an embedding to one of 65536 regions by the signs of its
// first 16 components. Near-identical embeddings share a bucket, so
// concurrent duplicate registrations contend on the same lock key.
func signBucket(embedding []float32) string {
	var bucket uint16
	limit := 16
	if len(embedding) < limit {
		limit = len(embedding)
	}
	for i := 0; i < limit; i++ {
		if embedding[i] >= 0 {
			bucket |= 1 << uint(i)
		}
	}
	return fmt.Sprintf("registration:%04x", bucket)
}
