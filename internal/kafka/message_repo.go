package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkaLib "github.com/segmentio/kafka-go"

	auth "github.com/strategiz/authcore"
)

// MessageRepository allows us to read and write to an OTP
// Kafka topic.
type MessageRepository struct {
	reader Reader
	writer Writer
}

// NewMessageRepository returns a new implementation of auth.MessageRepository.
func NewMessageRepository(client *Client) auth.MessageRepository {
	return &MessageRepository{
		reader: client.OTPReader,
		writer: client.OTPWriter,
	}
}

// Publish writes a message to the OTP topic. Messages are keyed by
// address so retries for a recipient stay on one partition.
func (r *MessageRepository) Publish(ctx context.Context, msg *auth.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return r.writer.WriteMessages(ctx, kafkaLib.Message{
		Key:   []byte(msg.Address),
		Value: b,
	})
}

// Recent streams messages written to the OTP topic until the
// context is done or the reader fails.
func (r *MessageRepository) Recent(ctx context.Context) (<-chan *auth.Message, <-chan error) {
	errc := make(chan error, 1)
	msgc := make(chan *auth.Message)

	go func() {
		defer close(errc)
		defer close(msgc)

		for {
			kafkaMsg, err := r.reader.ReadMessage(ctx)
			if err != nil {
				errc <- fmt.Errorf("failed to read otp: %w", err)
				return
			}

			var msg auth.Message
			if err = json.Unmarshal(kafkaMsg.Value, &msg); err != nil {
				errc <- fmt.Errorf("failed to unmarshal message: %w", err)
				return
			}

			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case msgc <- &msg:
			}
		}
	}()

	return msgc, errc
}
