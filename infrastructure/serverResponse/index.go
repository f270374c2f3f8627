package server_response

import (
	"os"

	"likeness.io/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

type ginResponder struct{}

// Respond writes the standard response envelope to the client.
func (gr ginResponder) Respond(ctx interface{}, code int, message string, payload interface{}, errs []error) {
	ginCtx, ok := (ctx).(*gin.Context)
	if !ok {
		logger.Error("could not transform *interface{} to gin.Context in serverResponse package", logger.LoggerOptions{
			Key:  "payload",
			Data: ctx,
		})
		return
	}
	ginCtx.Abort()
	response := map[string]any{
		"message": message,
		"body":    payload,
	}
	if errs != nil {
		errMsgs := []string{}
		for _, err := range errs {
			errMsgs = append(errMsgs, err.Error())
		}
		response["errors"] = errMsgs
	}
	if os.Getenv("APP_ENV") != "production" {
		logger.Info("response", logger.LoggerOptions{
			Key:  "message",
			Data: message,
		}, logger.LoggerOptions{
			Key:  "error",
			Data: errs,
		})
	}
	ginCtx.JSON(code, response)
}

var Responder = ginResponder{}
