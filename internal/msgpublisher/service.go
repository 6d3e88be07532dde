// Package msgpublisher queues SMS/Email messages for asynchronous delivery.
package msgpublisher

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
)

// service is an implementation of auth.MessagingService backed by
// a MessageRepository.
type service struct {
	logger      log.Logger
	messageRepo auth.MessageRepository
	expireAfter time.Duration
	clock       func() time.Time
}

// Send publishes a message to the repository with all the details
// required for delivery. A message is accepted once it is published.
func (s *service) Send(ctx context.Context, msg *auth.Message) error {
	if !contactchecker.Validator(msg.Delivery)(msg.Address) {
		return auth.ErrInvalidField("address is not valid for delivery method")
	}

	if msg.ExpiresAt.IsZero() {
		msg.ExpiresAt = s.clock().Add(s.expireAfter)
	}
	msg.DeliveryAttempts = 0

	if err := s.messageRepo.Publish(ctx, msg); err != nil {
		level.Error(s.logger).Log(
			"message", "failed to publish message",
			"delivery", msg.Delivery,
			"error", err,
			"source", "msgpublisher.Send",
		)
		return errors.Wrap(auth.ErrDeliveryFailed("message could not be queued"), err.Error())
	}

	return nil
}
