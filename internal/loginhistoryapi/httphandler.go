package loginhistoryapi

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods to
// http handlers.
func SetupHTTPHandler(svc auth.LoginHistoryAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.LimiterMiddleware(svc.List, lmt.NewLimiter(
			"LoginHistoryAPI.List", httpapi.PerMinute, int64(45),
		))
		handler = httpapi.RequireAuth(handler, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginHistoryAPI.List", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login-history", httpHandler).Methods("GET")
	}
}
