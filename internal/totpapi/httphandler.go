package totpapi

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.TOTPAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RequireAuth(svc.Secret, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TOTPAPI.Secret", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/totp", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.Configure, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TOTPAPI.Configure", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/totp/configure", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.BackupCodes, tokenSvc, auth.ACRMultiFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TOTPAPI.BackupCodes", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/totp/backup-codes", httpHandler).Methods("POST")
	}
}
