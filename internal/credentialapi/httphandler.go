package credentialapi

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.CredentialAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RequireAuth(svc.List, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "CredentialAPI.List", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/credentials", httpHandler).Methods("GET")
	}
	{
		handler = httpapi.RequireAuth(svc.MFASettings, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "CredentialAPI.MFASettings", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/credentials/mfa", httpHandler).Methods("GET")
	}
	{
		handler = httpapi.RequireAuth(svc.UpdateMFA, tokenSvc, auth.ACRMultiFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "CredentialAPI.UpdateMFA", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/credentials/mfa", httpHandler).Methods("PUT")
	}
	{
		handler = httpapi.RequireAuth(svc.Remove, tokenSvc, auth.ACRMultiFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "CredentialAPI.Remove", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/credentials/{credentialID}", httpHandler).Methods("DELETE")
	}
}
