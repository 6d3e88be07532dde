// Package httpapi provides common encoding and middleware for an HTTP API.
package httpapi

import (
	"encoding/json"
	"net/http"

	auth "github.com/strategiz/authcore"
)

// JSONAPIHandler is an HTTP handler for a JSON API.
type JSONAPIHandler func(w http.ResponseWriter, r *http.Request) (interface{}, error)

// ToHandlerFunc adapts a JSONAPIHandler into net/http's HandlerFunc.
func ToHandlerFunc(jsonHandler JSONAPIHandler, successCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, err := jsonHandler(w, r)
		if err != nil {
			ErrorResponse(w, err)
			return
		}

		JSONResponse(w, response, successCode)
	}
}

// JSONResponse writes a response body. If a struct is provided
// and we are unable to marshal it, we return an internal error.
func JSONResponse(w http.ResponseWriter, v interface{}, statusCode int) {
	if v == nil {
		response(w, []byte("{}"), statusCode)
		return
	}

	b, ok := v.([]byte)
	if ok {
		response(w, b, statusCode)
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		internalErrorResponse(w)
		return
	}

	response(w, b, statusCode)
}

// ErrorResponse writes an error response. Domain errors
// are returned to the client. Any other errors, will resolve
// to 500 error response.
func ErrorResponse(w http.ResponseWriter, err error) {
	domainErr := auth.DomainError(err)
	if domainErr == nil {
		internalErrorResponse(w)
		return
	}

	content := errorMessage(string(domainErr.Code()), domainErr.Message())
	response(w, content, StatusCode(domainErr.Code()))
}

// StatusCode maps a domain error code to an HTTP status.
func StatusCode(code auth.ErrCode) int {
	switch code {
	case auth.EInvalidToken, auth.ERevoked:
		return http.StatusUnauthorized
	case auth.EUnauthorized:
		return http.StatusForbidden
	case auth.ENotFound:
		return http.StatusNotFound
	case auth.EConflict:
		return http.StatusConflict
	case auth.EThrottle:
		return http.StatusTooManyRequests
	case auth.EDeliveryFailed:
		return http.StatusBadGateway
	case auth.EInfrastructure:
		return http.StatusServiceUnavailable
	case auth.EInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorMessage(code, message string) []byte {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	// A struct of strings always marshals.
	b, _ := json.Marshal(body)
	return b
}

func response(w http.ResponseWriter, content []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(content)
}

func internalErrorResponse(w http.ResponseWriter) {
	code := "internal"
	message := "An internal error occurred"
	content := errorMessage(code, message)
	response(w, content, http.StatusInternalServerError)
}
