package middlewares

import (
	apperrors "likeness.io/application/appErrors"
	"likeness.io/application/interfaces"

	"github.com/gin-gonic/gin"
)

// RequesterMiddleware identifies the calling platform and seeds the
// request's ApplicationContext.
func RequesterMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requesterID := ctx.GetHeader("X-Requester-Id")
		if requesterID == "" {
			apperrors.AuthenticationError(ctx, "provide a requester id")
			return
		}

		appContext := &interfaces.ApplicationContext[any]{
			Ctx: ctx,
			Keys: map[string]any{
				"RequesterID": requesterID,
			},
		}
		ctx.Set("AppContext", appContext)
		ctx.Next()
	}
}
