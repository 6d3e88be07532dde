// Package sendgrid adapts sendgrid-go to our Email interface.
package sendgrid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	auth "github.com/strategiz/authcore"
)

const (
	defaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"
)

type service struct {
	apiKey   string
	host     string
	fromAddr string
	fromName string
}

// ConfigOption configures the client.
type ConfigOption func(*service)

// WithHost overrides the Sendgrid API host.
func WithHost(host string) ConfigOption {
	return func(s *service) {
		s.host = host
	}
}

// Email delivers an email to an email address.
func (s *service) Email(ctx context.Context, email, subject, message string) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail("", email)
	msg := mail.NewSingleEmail(from, subject, to, message, "")

	request := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid client failed: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid failure received: %s", resp.Body)
	}

	return nil
}

// NewClient returns a new Sendgrid client
func NewClient(apiKey, fromAddr, fromName string, options ...ConfigOption) auth.Emailer {
	s := service{
		apiKey:   apiKey,
		host:     defaultHost,
		fromAddr: fromAddr,
		fromName: fromName,
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}
