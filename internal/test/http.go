package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// ServerResp is a canned response of an external test server.
// An empty Method matches any method and a zero StatusCode
// responds with 200.
type ServerResp struct {
	Path       string
	Method     string
	Resp       string
	StatusCode int
}

// Server starts a fake third party API (Twilio, SendGrid) that
// answers each registered path with its canned response.
func Server(resps ...ServerResp) *httptest.Server {
	router := mux.NewRouter()
	for _, sr := range resps {
		sr := sr
		route := router.HandleFunc(sr.Path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if sr.StatusCode != 0 {
				w.WriteHeader(sr.StatusCode)
			}
			fmt.Fprintln(w, sr.Resp)
		})
		if sr.Method != "" {
			route.Methods(sr.Method)
		}
	}

	return httptest.NewServer(router)
}

// ValidateErrMessage checks the message of a JSON error response
// written by httpapi.ErrorResponse. An empty expectation always passes.
func ValidateErrMessage(expectedMsg string, body *bytes.Buffer) error {
	if expectedMsg == "" {
		return nil
	}

	var errResponse struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&errResponse); err != nil {
		return errors.Wrap(err, "response is not a JSON error")
	}

	if errResponse.Error.Message != expectedMsg {
		return errors.Errorf("incorrect error response, want '%s' got '%s'",
			expectedMsg, errResponse.Error.Message)
	}

	return nil
}
