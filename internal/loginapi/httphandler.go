package loginapi

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
func SetupHTTPHandler(svc auth.LoginAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RateLimitMiddleware(svc.SendOTP, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.SendOTP", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusAccepted)
		router.HandleFunc("/api/v1/login/otp", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.BeginPasskey, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.BeginPasskey", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login/passkey", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Login, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.Login", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.LimiterMiddleware(svc.StepUp, lmt.NewLimiter(
			"LoginAPI.StepUp", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.RequireAuth(handler, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.StepUp", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login/step-up", httpHandler).Methods("POST")
	}
}
