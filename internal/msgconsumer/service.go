// Package msgconsumer delivers queued SMS/Email messages.
package msgconsumer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"

	auth "github.com/strategiz/authcore"
)

// Consumer delivers messages read from a MessageRepository.
type Consumer interface {
	Run(ctx context.Context) error
}

// service consumes messages from a repository into a channel
// to be delivered in parallel through goroutines.
type service struct {
	logger       log.Logger
	smsLib       auth.SMSer
	emailLib     auth.Emailer
	emailLimit   string
	smsLimit     string
	emailLimiter *rate.Limiter
	smsLimiter   *rate.Limiter
	totalWorkers int
	maxAttempts  int
	messageRepo  auth.MessageRepository
	clock        func() time.Time
}

// Run retrieves recent messages from the repository and passes
// them into a channel to be consumed by goroutines. It returns when
// the repository stream ends or ctx is done.
func (s *service) Run(ctx context.Context) error {
	queue := make(chan *auth.Message)
	wg := sync.WaitGroup{}
	s.startWorkers(ctx, queue, &wg)
	defer func() {
		close(queue)
		wg.Wait()
	}()

	msgc, errc := s.messageRepo.Recent(ctx)

	for {
		select {
		case msg, ok := <-msgc:
			if !ok {
				msgc = nil
				continue
			}
			select {
			case queue <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err := <-errc:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// startWorkers starts a finite number of workers to deliver messages found
// in the message queue.
func (s *service) startWorkers(ctx context.Context, queue <-chan *auth.Message, wg *sync.WaitGroup) {
	for i := 0; i < s.totalWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range queue {
				s.processMessage(ctx, msg)
			}
		}()
	}
}

// processMessage delivers a message through email or SMS. Failed
// deliveries are published again until they expire or run out of attempts.
func (s *service) processMessage(ctx context.Context, msg *auth.Message) {
	if s.clock().After(msg.ExpiresAt) {
		level.Info(s.logger).Log(
			"message", "dropped expired message",
			"delivery", msg.Delivery,
			"source", "msgconsumer.processMessage",
		)
		return
	}

	err := s.deliver(ctx, msg)
	if err == nil {
		return
	}

	msg.DeliveryAttempts++
	if msg.DeliveryAttempts >= s.maxAttempts {
		level.Error(s.logger).Log(
			"message", "dropped undeliverable message",
			"delivery", msg.Delivery,
			"attempts", msg.DeliveryAttempts,
			"error", err,
			"source", "msgconsumer.processMessage",
		)
		return
	}

	level.Warn(s.logger).Log(
		"message", "message delivery failed",
		"delivery", msg.Delivery,
		"attempts", msg.DeliveryAttempts,
		"error", err,
		"source", "msgconsumer.processMessage",
	)
	if err = s.messageRepo.Publish(ctx, msg); err != nil {
		level.Error(s.logger).Log(
			"message", "failed to requeue message",
			"error", err,
			"source", "msgconsumer.processMessage",
		)
	}
}

func (s *service) deliver(ctx context.Context, msg *auth.Message) error {
	switch msg.Delivery {
	case auth.Phone:
		if err := s.smsLimiter.Wait(ctx); err != nil {
			return err
		}
		return s.smsLib.SMS(ctx, msg.Address, msg.Content)
	case auth.Email:
		if err := s.emailLimiter.Wait(ctx); err != nil {
			return err
		}
		return s.emailLib.Email(ctx, msg.Address, msg.Subject, msg.Content)
	default:
		return fmt.Errorf("unsupported delivery method %q", msg.Delivery)
	}
}

func parseThrottle(t string) (int, time.Duration, error) {
	split := strings.Split(t, "/")
	if len(split) != 2 {
		return 0, 0, fmt.Errorf("throttle format requires limit and duration (e.g. 5/m)")
	}

	limit, err := strconv.Atoi(split[0])
	if err != nil || limit < 1 {
		return 0, 0, fmt.Errorf("limit must be a positive integer")
	}

	durations := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": 24 * time.Hour,
	}
	per, ok := durations[split[1]]
	if !ok {
		return 0, 0, fmt.Errorf("duration must be one of m, s, h, d")
	}

	return limit, per, nil
}
