package contactapi

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.ContactAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RequireAuth(svc.CheckAddress, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "ContactAPI.CheckAddress", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusAccepted)
		router.HandleFunc("/api/v1/contact/check-address", httpHandler).Methods("POST")
	}
	{
		handler = httpapi.RequireAuth(svc.Verify, tokenSvc, auth.ACRSingleFactor)
		handler = httpapi.ErrorLoggingMiddleware(handler, "ContactAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/contact/verify", httpHandler).Methods("POST")
	}
}
