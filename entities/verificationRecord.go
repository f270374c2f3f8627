package entities

import (
	"time"

	"likeness.io/application/utils"
)

type VerificationDecision string

const (
	DecisionAllowed  VerificationDecision = "allowed"
	DecisionBlocked  VerificationDecision = "blocked"
	DecisionNotFound VerificationDecision = "not_found"
)

// VerificationRecord is one row per verification call. Append-only: rows are
// never mutated after creation. Consumed by analytics/billing outside the
// pipeline.
type VerificationRecord struct {
	RequestID         string               `bson:"requestID" json:"requestID"`
	RequesterID       string               `bson:"requesterID" json:"requesterID"`
	FacesDetected     int                  `bson:"facesDetected" json:"facesDetected"`
	MatchedIdentityID *string              `bson:"matchedIdentityID" json:"matchedIdentityID"`
	SimilarityScore   *float64             `bson:"similarityScore" json:"similarityScore"`
	Decision          VerificationDecision `bson:"decision" json:"decision"`
	LatencyMS         int64                `bson:"latencyMS" json:"latencyMS"`

	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (model VerificationRecord) ParseModel() any {
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
		if model.ID == "" {
			model.ID = utils.GenerateULIDString()
		}
	}
	model.UpdatedAt = now
	return &model
}
