package passkeyapi

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.PasskeyAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RequireAuth(svc.Create, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "PasskeyAPI.Create", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/passkey", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.Verify, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "PasskeyAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/passkey/verify", httpHandler).Methods("POST")
	}
}
