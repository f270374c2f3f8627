package apperrors

import (
	"fmt"
	"net/http"

	"likeness.io/infrastructure/logger"
	server_response "likeness.io/infrastructure/serverResponse"
)

func NotFoundError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusNotFound, message, nil, nil)
}

func ValidationFailedError(ctx interface{}, errMessages *[]error) {
	server_response.Responder.Respond(ctx, http.StatusUnprocessableEntity, "Payload validation failed 🙄", nil, *errMessages)
}

func EntityAlreadyExistsError(ctx interface{}, message string, payload interface{}) {
	server_response.Responder.Respond(ctx, http.StatusConflict, message, payload, nil)
}

func ClientError(ctx interface{}, message string, errs []error) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, message, nil, errs)
}

func AuthenticationError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusUnauthorized, message, nil, nil)
}

func ExternalDependencyError(ctx interface{}, serviceName string, statusCode string, err error) {
	logger.Error(err.Error(), logger.LoggerOptions{
		Key: fmt.Sprintf("error with %s. status code %s", serviceName, statusCode),
	})
	server_response.Responder.Respond(ctx, http.StatusServiceUnavailable,
		"Our service is temporarily down 😢. Our team is working to fix it. Please check back later.", nil, nil)
}

func ServiceUnavailableError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusServiceUnavailable, message, nil, nil)
}

func ErrorProcessingPayload(ctx interface{}) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, "Abnormal payload passed 🤨", nil, nil)
}

func FatalServerError(ctx interface{}, err error) {
	logger.Error("fatal server error", logger.LoggerOptions{
		Key:  "error",
		Data: err,
	})
	server_response.Responder.Respond(ctx, http.StatusInternalServerError,
		"Our service is temporarily down 😢. Our team is working to fix it. Please check back later.", nil, nil)
}

func UnknownError(ctx interface{}, err error) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest,
		"Something went wrong somewhere 😭. Please check back later.", nil, nil)
}

func CustomError(ctx interface{}, msg string, code int) {
	server_response.Responder.Respond(ctx, code, msg, nil, nil)
}
