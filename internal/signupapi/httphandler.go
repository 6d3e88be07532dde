package signupapi

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
func SetupHTTPHandler(svc auth.SignUpAPI, router *mux.Router, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RateLimitMiddleware(svc.SignUp, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.SignUp", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/signup", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Verify, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/signup/verify", httpHandler).Methods("POST")
	}
}
