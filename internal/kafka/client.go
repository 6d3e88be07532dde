// Package kafka provides a client for Kafka.
package kafka

import (
	"context"
	"io"

	kafkaLib "github.com/segmentio/kafka-go"
)

// Topics
const (
	topicOTP = "authcore.messages.otp"
)

// consumerGroup commits read offsets so each message is delivered
// by one consumer of the group.
const consumerGroup = "authcore.messages.delivery"

// Reader reads messages from a topic.
type Reader interface {
	ReadMessage(ctx context.Context) (kafkaLib.Message, error)
}

// Writer writes messages to a topic.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkaLib.Message) error
}

// Client contains a pair of Kafka reader and writers
// for every topic we are interested in.
type Client struct {
	OTPReader Reader
	OTPWriter Writer
}

// NewClient returns a new Client.
func NewClient(brokers []string) *Client {
	return &Client{
		OTPReader: newReader(brokers, topicOTP),
		OTPWriter: newWriter(brokers, topicOTP),
	}
}

// Close closes the readers and writers of the client.
func (c *Client) Close() error {
	var err error
	for _, v := range []interface{}{c.OTPReader, c.OTPWriter} {
		closer, ok := v.(io.Closer)
		if !ok {
			continue
		}
		if closeErr := closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func newReader(brokers []string, topic string) *kafkaLib.Reader {
	return kafkaLib.NewReader(kafkaLib.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func newWriter(brokers []string, topic string) *kafkaLib.Writer {
	return &kafkaLib.Writer{
		Addr:  kafkaLib.TCP(brokers...),
		Topic: topic,
		// Compatibility with Kafka sarama client.
		Balancer:     &kafkaLib.Hash{},
		RequiredAcks: kafkaLib.RequireAll,
	}
}
