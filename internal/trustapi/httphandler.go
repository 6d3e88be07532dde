package trustapi

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
func SetupHTTPHandler(svc auth.DeviceTrustAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RequireAuth(svc.Establish, tokenSvc, auth.ACRMultiFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceTrustAPI.Establish", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/device-trust", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.List, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceTrustAPI.List", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/device-trust", httpHandler).Methods("GET")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Verify, tollbooth.NewLimiter(httpapi.ThrottleEveryOneSec, nil))
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceTrustAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/device-trust/verify", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.LimiterMiddleware(svc.Challenge, lmt.NewLimiter(
			"DeviceTrustAPI.Challenge", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceTrustAPI.Challenge", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/device-trust/challenge", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.LimiterMiddleware(svc.Authenticate, lmt.NewLimiter(
			"DeviceTrustAPI.Authenticate", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceTrustAPI.Authenticate", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/device-trust/authenticate", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.Revoke, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceTrustAPI.Revoke", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/device-trust/{deviceID}", httpHandler).Methods("DELETE")
	}
}
