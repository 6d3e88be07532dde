// Package msgrepo is an in-process message queue used when no
// message broker is configured.
package msgrepo

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// service is an implementation of auth.MessageRepository.
type service struct {
	logger       log.Logger
	messageQueue chan *auth.Message
	queueSize    int
	maxDelay     time.Duration
	clock        func() time.Time
	done         chan struct{}
	once         sync.Once
}

// Publish writes an unsent message to the queue. Messages that already
// failed delivery are queued again after a backoff.
func (s *service) Publish(ctx context.Context, msg *auth.Message) error {
	if s.clock().After(msg.ExpiresAt) {
		return errors.New("cannot publish expired message")
	}

	select {
	case <-s.done:
		return errors.New("message queue is closed")
	default:
	}

	if msg.DeliveryAttempts == 0 {
		select {
		case s.messageQueue <- msg:
			return nil
		default:
		}
	}

	go func() {
		if msg.DeliveryAttempts > 0 {
			select {
			case <-time.After(delay(msg.DeliveryAttempts, s.maxDelay)):
			case <-s.done:
				return
			}
		}

		select {
		case s.messageQueue <- msg:
		case <-s.done:
			level.Info(s.logger).Log(
				"message", "dropped message on shutdown",
				"delivery", msg.Delivery,
				"source", "msgrepo.Publish",
			)
		}
	}()

	return nil
}

// Recent returns the stream of queued messages. The stream ends with
// the context's error once ctx is done.
func (s *service) Recent(ctx context.Context) (<-chan *auth.Message, <-chan error) {
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		<-ctx.Done()
		s.once.Do(func() { close(s.done) })
		errc <- ctx.Err()
	}()

	return s.messageQueue, errc
}

// delay calculates the amount of time to wait before
// publishing a message back into the queue.
func delay(deliveryAttempts int, maxDelay time.Duration) time.Duration {
	// nolint:gosec // crypto/rand not necessary for jitter
	jitter := time.Duration(rand.Intn(3000)) * time.Millisecond
	minDelay := (time.Duration(deliveryAttempts) * time.Second) * 2
	countdown := jitter + minDelay

	if countdown < maxDelay {
		return countdown
	}

	return maxDelay
}
