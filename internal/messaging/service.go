// Package messaging delivers SMS/Email messages synchronously.
package messaging

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
)

// service is an implementation of auth.MessagingService that
// calls the SMS and email providers inline.
type service struct {
	logger   log.Logger
	smsLib   auth.SMSer
	emailLib auth.Emailer
}

// Send delivers a message to its address. A message is accepted
// only once the provider accepts it.
func (s *service) Send(ctx context.Context, msg *auth.Message) error {
	if !contactchecker.Validator(msg.Delivery)(msg.Address) {
		return auth.ErrInvalidField("address is not valid for delivery method")
	}

	var err error
	switch msg.Delivery {
	case auth.Phone:
		err = s.smsLib.SMS(ctx, msg.Address, msg.Content)
	case auth.Email:
		err = s.emailLib.Email(ctx, msg.Address, msg.Subject, msg.Content)
	default:
		return auth.ErrInvalidField("delivery method is not supported")
	}

	if err != nil {
		level.Error(s.logger).Log(
			"message", "failed to deliver message",
			"delivery", msg.Delivery,
			"error", err,
			"source", "messaging.Send",
		)
		return errors.Wrap(auth.ErrDeliveryFailed("message could not be delivered"), err.Error())
	}

	return nil
}
