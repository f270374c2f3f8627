package controller

import (
	"errors"
	"net/http"

	apperrors "likeness.io/application/appErrors"
	"likeness.io/application/controller/dto"
	"likeness.io/application/interfaces"
	"likeness.io/application/services/registration"
	service_types "likeness.io/application/services/types"
	"likeness.io/application/utils"
	"likeness.io/entities"
	server_response "likeness.io/infrastructure/serverResponse"
	"likeness.io/infrastructure/validator"
)

// RegistrationService is wired during startup before the router accepts
// traffic.
var RegistrationService *registration.RegistrationService

// RegisterIdentity enrolls a creator's face for protection.
func RegisterIdentity(ctx *interfaces.ApplicationContext[dto.RegisterIdentityDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}

	image, err := utils.DecodeBase64Image(ctx.Body.Image)
	if err != nil {
		apperrors.ClientError(ctx.Ctx, "invalid image format", nil)
		return
	}

	var secondaryImage []byte
	if ctx.Body.SecondaryImage != "" {
		secondaryImage, err = utils.DecodeBase64Image(ctx.Body.SecondaryImage)
		if err != nil {
			apperrors.ClientError(ctx.Ctx, "invalid secondary image format", nil)
			return
		}
	}

	identity, err := RegistrationService.Register(ctx.Ctx.Request.Context(), registration.RegisterPayload{
		OwnerID:        ctx.Body.OwnerID,
		DisplayName:    ctx.Body.DisplayName,
		Image:          image,
		SecondaryImage: secondaryImage,
		Policy: entities.UsagePolicy{
			AllowCommercialUse: ctx.Body.Policy.AllowCommercialUse,
			AllowAITraining:    ctx.Body.Policy.AllowAITraining,
			AllowDeepfake:      ctx.Body.Policy.AllowDeepfake,
			BlockedCategories:  ctx.Body.Policy.BlockedCategories,
			BlockedBrands:      ctx.Body.Policy.BlockedBrands,
			BlockedRegions:     ctx.Body.Policy.BlockedRegions,
		},
		Pricing: entities.Pricing{
			BaseLicenseFee:  ctx.Body.Pricing.BaseLicenseFee,
			Currency:        ctx.Body.Pricing.Currency,
			RevSharePercent: ctx.Body.Pricing.RevSharePercent,
		},
	})
	if err != nil {
		respondRegistrationError(ctx.Ctx, err)
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusCreated, "identity registered", identity, nil)
}

func respondRegistrationError(ginCtx interface{}, err error) {
	var duplicate *service_types.DuplicateIdentityError
	switch {
	case errors.Is(err, service_types.ErrFaceNotDetected):
		apperrors.ClientError(ginCtx, "no usable face found in the submitted image", nil)
	case errors.Is(err, service_types.ErrLivenessCheckFailed):
		apperrors.CustomError(ginCtx, "liveness check failed. submit a clearer live capture", http.StatusUnprocessableEntity)
	case errors.As(err, &duplicate):
		apperrors.EntityAlreadyExistsError(ginCtx, "this face is already registered", map[string]any{
			"existingIdentityID": duplicate.ExistingID,
			"similarityScore":    duplicate.Score,
		})
	case errors.Is(err, service_types.ErrServiceUnavailable):
		apperrors.ServiceUnavailableError(ginCtx, "registration is temporarily unavailable. please retry shortly")
	default:
		apperrors.FatalServerError(ginCtx, err)
	}
}

// GetIdentity returns an identity's public profile. Embeddings never leave
// the service.
func GetIdentity(ctx *interfaces.ApplicationContext[any]) {
	identityID := ctx.Ctx.Param("id")
	if identityID == "" {
		apperrors.ClientError(ctx.Ctx, "identity id is required", nil)
		return
	}

	identity, err := RegistrationService.Identities.Get(ctx.Ctx.Request.Context(), identityID)
	if err != nil {
		apperrors.ServiceUnavailableError(ctx.Ctx, "could not load identity. please retry shortly")
		return
	}
	if identity == nil {
		apperrors.NotFoundError(ctx.Ctx, "identity not found")
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "identity retrieved", identity, nil)
}

// RevokeIdentity removes an identity from protection at its owner's request.
func RevokeIdentity(ctx *interfaces.ApplicationContext[dto.RevokeIdentityDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}

	identityID := ctx.Ctx.Param("id")
	err := RegistrationService.Revoke(ctx.Ctx.Request.Context(), identityID, ctx.Body.Reason)
	if err != nil {
		if errors.Is(err, service_types.ErrIdentityNotFound) {
			apperrors.NotFoundError(ctx.Ctx, "identity not found")
			return
		}
		apperrors.ServiceUnavailableError(ctx.Ctx, "revocation is temporarily unavailable. please retry shortly")
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "identity revoked", nil, nil)
}
