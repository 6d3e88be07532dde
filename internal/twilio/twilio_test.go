package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/strategiz/authcore/internal/test"
)

func TestTwilio_SMS(t *testing.T) {
	tt := []struct {
		name         string
		responseCode int
		hasError     bool
	}{
		{
			name:         "Success 201",
			responseCode: http.StatusCreated,
			hasError:     false,
		},
		{
			name:         "Invalid 200",
			responseCode: http.StatusOK,
			hasError:     true,
		},
		{
			name:         "Invalid 400",
			responseCode: http.StatusBadRequest,
			hasError:     true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := test.Server(test.ServerResp{
				Path:       "/Accounts/accountSID/Messages.json",
				StatusCode: tc.responseCode,
			})
			defer srv.Close()

			ctx := context.Background()
			c := NewClient(WithConfig(Config{
				BaseURL:    srv.URL,
				AccountSID: "accountSID",
				AuthToken:  "authToken",
				SMSSender:  "+15555555555",
			}))

			err := c.SMS(ctx, "+17777777777", "hello world")
			if err != nil && !tc.hasError {
				t.Error("expected nil error", err)
			}
			if err == nil && tc.hasError {
				t.Error("expected error, received nil")
			}
		})
	}
}

func TestTwilio_SMSRequest(t *testing.T) {
	var (
		user, pass string
		form       map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		form = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(
		WithDefaults("accountSID", "authToken", "+15555555555"),
		WithConfig(Config{
			BaseURL:    srv.URL + "/",
			AccountSID: "accountSID",
			AuthToken:  "authToken",
			SMSSender:  "+15555555555",
		}),
		WithHTTPClient(srv.Client()),
	)

	if err := c.SMS(context.Background(), "+17777777777", "Your code is 123456"); err != nil {
		t.Fatal("failed to send SMS:", err)
	}

	if user != "accountSID" || pass != "authToken" {
		t.Errorf("incorrect basic auth %s:%s", user, pass)
	}
	want := map[string]string{
		"To":   "+17777777777",
		"From": "+15555555555",
		"Body": "Your code is 123456",
	}
	if !cmp.Equal(form, want) {
		t.Error("form does not match", cmp.Diff(form, want))
	}
}
