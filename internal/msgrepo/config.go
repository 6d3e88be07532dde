package msgrepo

import (
	"time"

	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

const (
	// defaultQueueSize is the number of ready messages buffered
	// before Publish blocks its retry goroutine.
	defaultQueueSize = 100
	// defaultMaxDelay caps the backoff between delivery attempts.
	defaultMaxDelay = 30 * time.Second
)

// NewService returns a new in-process MessageRepository.
func NewService(options ...ConfigOption) auth.MessageRepository {
	s := service{
		logger:    log.NewNopLogger(),
		maxDelay:  defaultMaxDelay,
		clock:     time.Now,
		done:      make(chan struct{}),
		queueSize: defaultQueueSize,
	}

	for _, opt := range options {
		opt(&s)
	}
	s.messageQueue = make(chan *auth.Message, s.queueSize)

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

// WithQueueSize sets the number of buffered messages.
func WithQueueSize(size int) ConfigOption {
	return func(s *service) {
		s.queueSize = size
	}
}

// WithMaxDelay caps the backoff between delivery attempts.
func WithMaxDelay(d time.Duration) ConfigOption {
	return func(s *service) {
		s.maxDelay = d
	}
}
