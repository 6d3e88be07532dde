package tokenapi

import (
	"net/http"

	"github.com/didip/tollbooth/v6"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.TokenAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RequireAuth(svc.Verify, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/token/verify", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Refresh, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.Refresh", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/token/refresh", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.RevokeAll, tokenSvc, auth.ACRMultiFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.RevokeAll", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/token/revoke-all", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.Revoke, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.Revoke", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/token", httpHandler).Methods("DELETE")
	}
	{
		handler = httpapi.RequireAuth(svc.RevokeSession, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.RevokeSession", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/token/{sessionID}", httpHandler).Methods("DELETE")
	}
}
