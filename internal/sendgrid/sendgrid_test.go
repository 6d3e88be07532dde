package sendgrid

import (
	"context"
	"net/http"
	"testing"

	"github.com/strategiz/authcore/internal/test"
)

func TestSendgrid_Email(t *testing.T) {
	tt := []struct {
		name       string
		statusCode int
		hasError   bool
	}{
		{
			name:       "Accepted",
			statusCode: http.StatusAccepted,
			hasError:   false,
		},
		{
			name:       "Unauthorized",
			statusCode: http.StatusUnauthorized,
			hasError:   true,
		},
		{
			name:       "Bad request",
			statusCode: http.StatusBadRequest,
			hasError:   true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := test.Server(test.ServerResp{
				Path:       sendEndpoint,
				StatusCode: tc.statusCode,
			})
			defer srv.Close()

			c := NewClient("api-key", "noreply@example.com", "Example", WithHost(srv.URL))
			err := c.Email(context.Background(), "jane@example.com", "Your code", "123456")
			if err != nil && !tc.hasError {
				t.Error("expected nil error", err)
			}
			if err == nil && tc.hasError {
				t.Error("expected error, received nil")
			}
		})
	}
}
