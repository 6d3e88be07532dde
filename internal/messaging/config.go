package messaging

import (
	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns an auth.MessagingService that delivers messages
// immediately, without a queue.
func NewService(smsLib auth.SMSer, emailLib auth.Emailer, options ...ConfigOption) auth.MessagingService {
	s := service{
		smsLib:   smsLib,
		emailLib: emailLib,
		logger:   log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}
