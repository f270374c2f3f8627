package queue_tasks

import (
	"context"
	"encoding/json"

	"likeness.io/application/repository"
	"likeness.io/entities"
	"likeness.io/infrastructure/logger"
	mq_types "likeness.io/infrastructure/message_queue/types"
	"likeness.io/infrastructure/vectorindex"

	"github.com/hibiken/asynq"
)

var HandleIndexReconciliationTaskName mq_types.Queues = "reconcile_index"

type IndexReconciliationPayload struct {
	Reason string
}

// reconciler holds the live index handle. Set once during startup before
// the queue server begins consuming.
var reconciler struct {
	Index              vectorindex.Index
	DuplicateThreshold float64
}

func SetReconcilerDeps(index vectorindex.Index, duplicateThreshold float64) {
	reconciler.Index = index
	reconciler.DuplicateThreshold = duplicateThreshold
}

// HandleIndexReconciliationTask re-aligns the vector index with the
// identity store after a partial failure: orphan vectors are removed,
// missing vectors re-inserted, and identities stuck mid-commit are either
// promoted or flagged for review.
func HandleIndexReconciliationTask(ctx context.Context, t *asynq.Task) error {
	var payload IndexReconciliationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("an error occured while unmarshalling reconciliation payload", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return err
	}
	if reconciler.Index == nil {
		logger.Warning("reconciliation skipped, index not wired")
		return nil
	}
	logger.Info("index reconciliation sweep started", logger.LoggerOptions{
		Key:  "reason",
		Data: payload.Reason,
	})

	identityRepo := repository.IdentityRepo()
	active, err := identityRepo.FindMany(ctx, map[string]interface{}{
		"status":    entities.IdentityStatusVerified,
		"deletedAt": nil,
	})
	if err != nil {
		return err
	}
	processing, err := identityRepo.FindMany(ctx, map[string]interface{}{
		"status":    entities.IdentityStatusProcessing,
		"deletedAt": nil,
	})
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(active)+len(processing))
	for _, identity := range active {
		known[identity.ID] = true
	}
	for _, identity := range processing {
		known[identity.ID] = true
	}

	indexed, err := reconciler.Index.IDs(ctx)
	if err != nil {
		return err
	}
	indexedSet := make(map[string]bool, len(indexed))
	for _, id := range indexed {
		indexedSet[id] = true
	}

	// Vectors with no live identity behind them keep matching revoked or
	// unknown people. Remove them first.
	for _, id := range indexed {
		if !known[id] {
			if err := reconciler.Index.Delete(ctx, id); err != nil {
				logger.Error("failed removing orphan vector", logger.LoggerOptions{
					Key:  "error",
					Data: err,
				}, logger.LoggerOptions{
					Key:  "identityID",
					Data: id,
				})
				continue
			}
			logger.Warning("removed orphan vector", logger.LoggerOptions{
				Key:  "identityID",
				Data: id,
			})
		}
	}

	for _, identity := range active {
		if indexedSet[identity.ID] {
			continue
		}
		logger.Error("verified identity missing from index", logger.LoggerOptions{
			Key:  "identityID",
			Data: identity.ID,
		})
		if err := reconciler.Index.Upsert(ctx, identity.ID, identity.Embedding); err != nil {
			logger.Error("failed re-inserting missing vector", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			}, logger.LoggerOptions{
				Key:  "identityID",
				Data: identity.ID,
			})
		}
	}

	for _, identity := range processing {
		if err := finishProcessingIdentity(ctx, identity); err != nil {
			logger.Error("failed finishing stuck registration", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			}, logger.LoggerOptions{
				Key:  "identityID",
				Data: identity.ID,
			})
		}
	}

	logger.Info("index reconciliation sweep finished", logger.LoggerOptions{
		Key:  "active",
		Data: len(active),
	}, logger.LoggerOptions{
		Key:  "processing",
		Data: len(processing),
	})
	return nil
}

// finishProcessingIdentity completes a registration that crashed between
// the store write and the index commit. If another identity now sits too
// close in embedding space the row is parked for manual review instead of
// silently creating a duplicate.
func finishProcessingIdentity(ctx context.Context, identity entities.Identity) error {
	neighbors, err := reconciler.Index.Search(ctx, identity.Embedding, 5, reconciler.DuplicateThreshold)
	if err != nil {
		return err
	}
	for _, neighbor := range neighbors {
		if neighbor.ID == identity.ID {
			continue
		}
		logger.Warning("stuck registration flagged as near duplicate", logger.LoggerOptions{
			Key:  "identityID",
			Data: identity.ID,
		}, logger.LoggerOptions{
			Key:  "neighborID",
			Data: neighbor.ID,
		})
		return repository.IdentityRepo().UpdatePartialByID(ctx, identity.ID, map[string]interface{}{
			"status":       entities.IdentityStatusPending,
			"reviewReason": "possible duplicate found during reconciliation",
		})
	}

	if err := reconciler.Index.Upsert(ctx, identity.ID, identity.Embedding); err != nil {
		return err
	}
	return repository.IdentityRepo().UpdatePartialByID(ctx, identity.ID, map[string]interface{}{
		"status": entities.IdentityStatusVerified,
	})
}
