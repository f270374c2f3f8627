package routev1

import (
	apperrors "likeness.io/application/appErrors"
	"likeness.io/application/controller"
	"likeness.io/application/controller/dto"
	"likeness.io/application/interfaces"

	"github.com/gin-gonic/gin"
)

func VerificationRouter(router *gin.RouterGroup) {
	verificationRouter := router.Group("/verification")
	{
		verificationRouter.POST("/verify", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			var body dto.VerifyMediaDTO
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			controller.VerifyMedia(&interfaces.ApplicationContext[dto.VerifyMediaDTO]{
				Ctx:  ctx,
				Body: &body,
				Keys: appContext.Keys,
			})
		})
	}
}
