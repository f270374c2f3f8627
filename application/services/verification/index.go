package verification

import (
	"context"
	"time"

	"likeness.io/application/services/matchengine"
	service_types "likeness.io/application/services/types"
	"likeness.io/application/utils"
	"likeness.io/entities"
	biometric_types "likeness.io/infrastructure/biometric/types"
	"likeness.io/infrastructure/logger"
)

// VerificationService answers whether a piece of media contains protected
// identities and whether the intended usage is permitted. Matches are always
// reported; policy gating annotates the decision, it never hides a match.
type VerificationService struct {
	Oracle     biometric_types.EmbeddingOracle
	Engine     *matchengine.MatchEngine
	Identities service_types.IdentityStore
	Records    service_types.VerificationRecordStore
	Licenses   service_types.LicenseCatalog
	Config     service_types.PipelineConfig
}

// UsageContext describes what the requester intends to do with the media.
type UsageContext struct {
	Intent   string `json:"intent"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Region   string `json:"region"`
}

const (
	IntentCommercial = "commercial"
	IntentAITraining = "ai_training"
	IntentDeepfake   = "deepfake"
)

type VerifyPayload struct {
	RequesterID string
	Image       []byte
	Usage       UsageContext
}

// FaceMatch is the outcome for a single detected face, in detection order.
// Protected reports the match itself; Allowed reports the policy gate. The
// two are independent so a blocked match is still reported transparently.
type FaceMatch struct {
	FaceIndex       int                           `json:"faceIndex"`
	Protected       bool                          `json:"protected"`
	IdentityID      string                        `json:"identityID"`
	DisplayName     string                        `json:"displayName"`
	Score           float64                       `json:"score"`
	Box             biometric_types.BoundingBox   `json:"faceBBox"`
	Allowed         bool                          `json:"allowed"`
	BlockReason     string                        `json:"blockReason,omitempty"`
	LicenseRequired bool                          `json:"licenseRequired"`
	LicenseOptions  []service_types.LicenseOption `json:"licenseOptions,omitempty"`
}

type VerifyResult struct {
	RequestID     string                        `json:"requestID"`
	Protected     bool                          `json:"protected"`
	FacesDetected int                           `json:"facesDetected"`
	Matches       []FaceMatch                   `json:"matches"`
	Decision      entities.VerificationDecision `json:"decision"`
	LatencyMS     int64                         `json:"latencyMS"`
}

// Verify runs the pipeline over every detected face up to the per-request
// cap. Transient failures surface as ErrServiceUnavailable so callers never
// mistake an outage for "no protected identity present".
func (service *VerificationService) Verify(ctx context.Context, payload VerifyPayload) (*VerifyResult, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, service.Config.VerifyTimeout)
	defer cancel()

	requestID := utils.GenerateULIDString()

	detections, err := service.Oracle.DetectFaces(ctx, payload.Image)
	if err != nil {
		logger.Error("face extraction failed during verification", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "requestID",
			Data: requestID,
		})
		return nil, service_types.ErrServiceUnavailable
	}
	if len(detections) == 0 {
		return nil, service_types.ErrFaceNotDetected
	}

	facesDetected := len(detections)
	if len(detections) > service.Config.MaxFacesPerRequest {
		detections = detections[:service.Config.MaxFacesPerRequest]
	}

	matches := make([]FaceMatch, 0, len(detections))
	for faceIndex, detection := range detections {
		result, err := service.Engine.FindMatch(ctx, detection.Embedding, service.Config.MatchThreshold)
		if err != nil {
			return nil, service_types.ErrServiceUnavailable
		}
		if result == nil {
			continue
		}

		identity, err := service.Identities.Get(ctx, result.IdentityID)
		if err != nil {
			return nil, service_types.ErrServiceUnavailable
		}
		if identity == nil {
			// The index named an identity the store does not have. The
			// two sources of truth have diverged; refuse to answer.
			logger.Error("index returned identity missing from store", logger.LoggerOptions{
				Key:  "identityID",
				Data: result.IdentityID,
			}, logger.LoggerOptions{
				Key:  "requestID",
				Data: requestID,
			})
			return nil, service_types.ErrIndexInconsistency
		}

		match := FaceMatch{
			FaceIndex:   faceIndex,
			Protected:   true,
			IdentityID:  identity.ID,
			DisplayName: identity.DisplayName,
			Score:       result.Score,
			Box:         detection.Box,
		}
		match.Allowed, match.BlockReason, match.LicenseRequired = evaluatePolicy(identity.Policy, payload.Usage)

		// A use that needs a license gets the options attached so the
		// caller can obtain one, whether or not the use was permitted
		// as declared.
		if match.LicenseRequired && service.Licenses != nil {
			match.LicenseOptions = service.fetchLicenseOptions(ctx, identity.ID)
		}
		matches = append(matches, match)
	}

	result := &VerifyResult{
		RequestID:     requestID,
		Protected:     len(matches) > 0,
		FacesDetected: facesDetected,
		Matches:       matches,
		Decision:      overallDecision(matches),
		LatencyMS:     time.Since(started).Milliseconds(),
	}

	service.appendRecord(ctx, payload.RequesterID, result)
	return result, nil
}

// fetchLicenseOptions is best effort under its own short deadline. A slow or
// dead marketplace costs the caller the options list, never the decision.
func (service *VerificationService) fetchLicenseOptions(ctx context.Context, identityID string) []service_types.LicenseOption {
	lookupCtx, cancel := context.WithTimeout(ctx, service.Config.LicenseLookupTimeout)
	defer cancel()

	options, err := service.Licenses.GetLicenseOptions(lookupCtx, identityID)
	if err != nil {
		logger.Warning("license option lookup failed, omitting options", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "identityID",
			Data: identityID,
		})
		return nil
	}
	return options
}

func (service *VerificationService) appendRecord(ctx context.Context, requesterID string, result *VerifyResult) {
	record := entities.VerificationRecord{
		RequestID:     result.RequestID,
		RequesterID:   requesterID,
		FacesDetected: result.FacesDetected,
		Decision:      result.Decision,
		LatencyMS:     result.LatencyMS,
	}
	if len(result.Matches) > 0 {
		best := result.Matches[0]
		for _, match := range result.Matches[1:] {
			if match.Score > best.Score {
				best = match
			}
		}
		record.MatchedIdentityID = utils.GetStringPointer(best.IdentityID)
		record.SimilarityScore = utils.GetFloat64Pointer(best.Score)
	}

	if err := service.Records.Append(context.WithoutCancel(ctx), record); err != nil {
		logger.Error("failed appending verification record", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "requestID",
			Data: result.RequestID,
		})
	}
}

// evaluatePolicy applies the matched identity's usage policy to the
// requested usage. Returns allowed, the block reason when not allowed, and
// whether the usage needs a license. A usage the identity has not blanket
// permitted is not allowed as declared; licenseRequired marks the subset a
// caller can still clear by licensing through the marketplace.
func evaluatePolicy(policy entities.UsagePolicy, usage UsageContext) (bool, string, bool) {
	if usage.Intent == IntentDeepfake && !policy.AllowDeepfake {
		return false, "identity does not permit synthetic reenactment", false
	}
	if usage.Intent == IntentAITraining && !policy.AllowAITraining {
		return false, "identity does not permit AI training use", false
	}
	if usage.Category != "" && utils.HasItemString(&policy.BlockedCategories, usage.Category) {
		return false, "usage category blocked by identity policy", true
	}
	if usage.Brand != "" && utils.HasItemString(&policy.BlockedBrands, usage.Brand) {
		return false, "brand blocked by identity policy", true
	}
	if usage.Region != "" && utils.HasItemString(&policy.BlockedRegions, usage.Region) {
		return false, "region blocked by identity policy", true
	}
	if usage.Intent == IntentCommercial && !policy.AllowCommercialUse {
		return false, "commercial use requires a license from the identity owner", true
	}

	return true, "", false
}

func overallDecision(matches []FaceMatch) entities.VerificationDecision {
	if len(matches) == 0 {
		return entities.DecisionNotFound
	}
	for _, match := range matches {
		if !match.Allowed {
			return entities.DecisionBlocked
		}
	}
	return entities.DecisionAllowed
}
