package routev1

import (
	apperrors "likeness.io/application/appErrors"
	"likeness.io/application/controller"
	"likeness.io/application/controller/dto"
	"likeness.io/application/interfaces"

	"github.com/gin-gonic/gin"
)

func IdentityRouter(router *gin.RouterGroup) {
	identityRouter := router.Group("/identity")
	{
		identityRouter.POST("/", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			var body dto.RegisterIdentityDTO
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			controller.RegisterIdentity(&interfaces.ApplicationContext[dto.RegisterIdentityDTO]{
				Ctx:  ctx,
				Body: &body,
				Keys: appContext.Keys,
			})
		})

		identityRouter.GET("/:id", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			controller.GetIdentity(&interfaces.ApplicationContext[any]{
				Ctx:  ctx,
				Keys: appContext.Keys,
			})
		})

		identityRouter.DELETE("/:id", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			var body dto.RevokeIdentityDTO
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			controller.RevokeIdentity(&interfaces.ApplicationContext[dto.RevokeIdentityDTO]{
				Ctx:  ctx,
				Body: &body,
				Keys: appContext.Keys,
			})
		})
	}
}
