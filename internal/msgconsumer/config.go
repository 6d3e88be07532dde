package msgconsumer

import (
	"time"

	"github.com/go-kit/log"
	"golang.org/x/time/rate"

	auth "github.com/strategiz/authcore"
)

const (
	// defaultWorkers represents the default number of workers to process a queue.
	defaultWorkers = 4
	// defaultMaxAttempts is the number of times delivery is tried
	// before a message is dropped.
	defaultMaxAttempts = 3
	// defaultEmailLimit the max amount of email messages we may send at a time.
	defaultEmailLimit = "5/s"
	// defaultSMSLimit is the max amount of SMS messages we may send at a time.
	defaultSMSLimit = "1/s"
)

// NewService returns a new Consumer.
func NewService(r auth.MessageRepository, smsLib auth.SMSer, emailLib auth.Emailer, options ...ConfigOption) (Consumer, error) {
	s := service{
		logger:       log.NewNopLogger(),
		totalWorkers: defaultWorkers,
		maxAttempts:  defaultMaxAttempts,
		emailLimit:   defaultEmailLimit,
		smsLimit:     defaultSMSLimit,
		messageRepo:  r,
		smsLib:       smsLib,
		emailLib:     emailLib,
		clock:        time.Now,
	}

	for _, opt := range options {
		opt(&s)
	}

	var err error
	if s.smsLimiter, err = newLimiter(s.smsLimit); err != nil {
		return nil, err
	}
	if s.emailLimiter, err = newLimiter(s.emailLimit); err != nil {
		return nil, err
	}

	return &s, nil
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithWorkers determines the total number of workers to process
// a message queue.
func WithWorkers(w int) ConfigOption {
	return func(s *service) {
		s.totalWorkers = w
	}
}

// WithMaxAttempts sets the number of delivery attempts for a message.
func WithMaxAttempts(n int) ConfigOption {
	return func(s *service) {
		s.maxAttempts = n
	}
}

// WithSMSLimit sets a limit for the max amount of SMS messages we may
// send at a time, formatted as limit/unit (e.g. 1/s).
func WithSMSLimit(limit string) ConfigOption {
	return func(s *service) {
		s.smsLimit = limit
	}
}

// WithEmailLimit sets a limit for the max amount of email messages we
// may send at a time, formatted as limit/unit (e.g. 5/s).
func WithEmailLimit(limit string) ConfigOption {
	return func(s *service) {
		s.emailLimit = limit
	}
}

func newLimiter(throttle string) (*rate.Limiter, error) {
	limit, per, err := parseThrottle(throttle)
	if err != nil {
		return nil, err
	}

	return rate.NewLimiter(rate.Every(per/time.Duration(limit)), limit), nil
}
