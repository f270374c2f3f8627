package entities

import (
	"time"

	"likeness.io/application/utils"
)

type IdentityStatus string

const (
	IdentityStatusPending    IdentityStatus = "PENDING"
	IdentityStatusProcessing IdentityStatus = "PROCESSING"
	IdentityStatusVerified   IdentityStatus = "VERIFIED"
	IdentityStatusRejected   IdentityStatus = "REJECTED"
	IdentityStatusSuspended  IdentityStatus = "SUSPENDED"
)

// UsagePolicy controls what a matched identity permits. The verification
// path reports matches transparently and carries these flags alongside;
// gating never hides a match.
type UsagePolicy struct {
	AllowCommercialUse bool     `bson:"allowCommercialUse" json:"allowCommercialUse"`
	AllowAITraining    bool     `bson:"allowAITraining" json:"allowAITraining"`
	AllowDeepfake      bool     `bson:"allowDeepfake" json:"allowDeepfake"`
	BlockedCategories  []string `bson:"blockedCategories" json:"blockedCategories"`
	BlockedBrands      []string `bson:"blockedBrands" json:"blockedBrands"`
	BlockedRegions     []string `bson:"blockedRegions" json:"blockedRegions"`
}

type Pricing struct {
	BaseLicenseFee  float64 `bson:"baseLicenseFee" json:"baseLicenseFee"`
	Currency        string  `bson:"currency" json:"currency"`
	RevSharePercent float64 `bson:"revSharePercent" json:"revSharePercent"`
}

// Identity is one protected person/persona. Embedding is the primary face
// representation and is always unit-normalized before storage; only the
// primary embedding is committed to the vector index.
type Identity struct {
	OwnerID         string         `bson:"ownerID" json:"ownerID"`
	DisplayName     string         `bson:"displayName" json:"displayName"`
	Embedding       []float32      `bson:"embedding" json:"-"`
	EmbeddingBackup []float32      `bson:"embeddingBackup" json:"-"`
	Status          IdentityStatus `bson:"status" json:"status"`
	Policy          UsagePolicy    `bson:"policy" json:"policy"`
	Pricing         Pricing        `bson:"pricing" json:"pricing"`
	LivenessScore   float64        `bson:"livenessScore" json:"livenessScore"`
	ReviewReason    *string        `bson:"reviewReason" json:"reviewReason,omitempty"`

	ID            string     `bson:"_id" json:"id"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time `bson:"deletedAt" json:"deletedAt"`
	DeletedReason *string    `bson:"deletedReason" json:"deletedReason"`
}

func (model Identity) ParseModel() any {
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
