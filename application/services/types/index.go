package types

import (
	"context"
	"errors"
	"fmt"

	"likeness.io/entities"
)

// Domain errors of the pipeline. Validation failures are deterministic and
// never retried; ErrServiceUnavailable is transient and must never be
// downgraded to a "no match" answer.
var (
	ErrFaceNotDetected     = errors.New("no usable face detected")
	ErrLivenessCheckFailed = errors.New("liveness check failed")
	ErrServiceUnavailable  = errors.New("service temporarily unavailable")
	ErrIndexInconsistency  = errors.New("identity/index pairing inconsistent")
	ErrIdentityNotFound    = errors.New("identity not found")
)

// DuplicateIdentityError reports a registration blocked by an existing
// identity above the duplicate threshold.
type DuplicateIdentityError struct {
	ExistingID string
	Score      float64
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate identity: matches %s with similarity %.4f", e.ExistingID, e.Score)
}

// MatchResult is produced by the match engine and consumed immediately;
// it is never persisted.
type MatchResult struct {
	IdentityID string
	Score      float64
	Rank       int
}

// RejectionReason codes surfaced to API callers.
type RejectionReason string

const (
	ReasonFaceNotDetected     RejectionReason = "FACE_NOT_DETECTED"
	ReasonLivenessCheckFailed RejectionReason = "LIVENESS_CHECK_FAILED"
	ReasonDuplicateIdentity   RejectionReason = "DUPLICATE_IDENTITY"
	ReasonServiceUnavailable  RejectionReason = "SERVICE_UNAVAILABLE"
)

// IdentityStore is the narrow persistence interface the pipeline uses. The
// core never traverses an object graph or issues schema-level queries.
type IdentityStore interface {
	Get(ctx context.Context, id string) (*entities.Identity, error)
	Save(ctx context.Context, identity *entities.Identity) error
	SoftDelete(ctx context.Context, id string, reason string) error
	ListVerified(ctx context.Context) ([]entities.Identity, error)
}

// VerificationRecordStore appends one record per verification call.
type VerificationRecordStore interface {
	Append(ctx context.Context, record entities.VerificationRecord) error
}

// LicenseOption is best-effort enrichment from the marketplace subsystem.
type LicenseOption struct {
	LicenseType string  `json:"licenseType"`
	Fee         float64 `json:"fee"`
	Currency    string  `json:"currency"`
	TermDays    int     `json:"termDays"`
}

// LicenseCatalog is the marketplace collaborator. Slow or failing lookups
// must not block the match decision; callers give it a short deadline and
// omit options on failure.
type LicenseCatalog interface {
	GetLicenseOptions(ctx context.Context, identityID string) ([]LicenseOption, error)
}
