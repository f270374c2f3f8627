package controller

import (
	"errors"
	"net/http"

	apperrors "likeness.io/application/appErrors"
	"likeness.io/application/controller/dto"
	"likeness.io/application/interfaces"
	service_types "likeness.io/application/services/types"
	"likeness.io/application/services/verification"
	"likeness.io/application/utils"
	server_response "likeness.io/infrastructure/serverResponse"
	"likeness.io/infrastructure/validator"
)

var VerificationService *verification.VerificationService

// VerifyMedia checks a piece of media against the protected identity set.
func VerifyMedia(ctx *interfaces.ApplicationContext[dto.VerifyMediaDTO]) {
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

	result, err := VerificationService.Verify(ctx.Ctx.Request.Context(), verification.VerifyPayload{
		RequesterID: ctx.GetStringContextData("RequesterID"),
		Image:       image,
		Usage: verification.UsageContext{
			Intent:   ctx.Body.Intent,
			Category: ctx.Body.Category,
			Brand:    ctx.Body.Brand,
			Region:   ctx.Body.Region,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, service_types.ErrFaceNotDetected):
			apperrors.ClientError(ctx.Ctx, "no usable face found in the submitted media", nil)
		case errors.Is(err, service_types.ErrIndexInconsistency):
			apperrors.FatalServerError(ctx.Ctx, err)
		default:
			apperrors.ServiceUnavailableError(ctx.Ctx, "verification is temporarily unavailable. please retry shortly")
		}
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "verification completed", result, nil)
}
