package controller

import (
	"net/http"

	"likeness.io/application/interfaces"
	"likeness.io/infrastructure/resilience"
	server_response "likeness.io/infrastructure/serverResponse"
)

// Breakers registered at startup; surfaced on the health endpoint so an
// operator can see which dependency tripped.
var Breakers []*resilience.Breaker

// HealthCheck reports whether the pipeline can answer queries.
func HealthCheck(ctx *interfaces.ApplicationContext[any]) {
	breakerStates := map[string]string{}
	for _, breaker := range Breakers {
		breakerStates[breaker.Name()] = string(breaker.State())
	}

	payload := map[string]any{
		"indexedIdentities": 0,
		"breakers":          breakerStates,
	}
	if RegistrationService != nil && RegistrationService.Index != nil {
		payload["indexedIdentities"] = RegistrationService.Index.Len()
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "pong!", payload, nil)
}
