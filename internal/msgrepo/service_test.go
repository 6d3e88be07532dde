package msgrepo

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	auth "github.com/strategiz/authcore"
)

func TestMsgRepo_Publish(t *testing.T) {
	tt := []struct {
		name     string
		msg      auth.Message
		hasError bool
	}{
		{
			name: "Does not publish after expiry",
			msg: auth.Message{
				ExpiresAt: time.Now().Add(time.Second * -5),
			},
			hasError: true,
		},
		{
			name: "Publishes to queue",
			msg: auth.Message{
				ExpiresAt: time.Now().Add(time.Second * 5),
			},
			hasError: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService()
			err := svc.Publish(ctx, &tc.msg)
			if err != nil && !tc.hasError {
				t.Error("expected nil error, received", err)
			}
			if err == nil && tc.hasError {
				t.Error("expected error, not nil")
			}
		})
	}
}

func TestMsgRepo_Recent(t *testing.T) {
	msg := auth.Message{ExpiresAt: time.Now().Add(time.Second * 5)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewService()
	if err := svc.Publish(ctx, &msg); err != nil {
		t.Fatal("failed to publish message", err)
	}

	msgc, errc := svc.Recent(ctx)
	select {
	case err := <-errc:
		t.Fatal("failed to retrieve message", err)
	case m := <-msgc:
		if !cmp.Equal(m, &msg) {
			t.Error("retrieved message does not match", cmp.Diff(m, &msg))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	cancel()
	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Error("expected context.Canceled, received", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not end after cancel")
	}

	if err := svc.Publish(context.Background(), &msg); err == nil {
		t.Error("expected error publishing to a closed queue")
	}
}

func TestMsgRepo_Retry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewService(WithMaxDelay(10 * time.Millisecond))
	msg := auth.Message{
		ExpiresAt:        time.Now().Add(time.Minute),
		DeliveryAttempts: 2,
	}
	if err := svc.Publish(ctx, &msg); err != nil {
		t.Fatal("failed to publish message", err)
	}

	msgc, _ := svc.Recent(ctx)
	select {
	case m := <-msgc:
		if m.DeliveryAttempts != 2 {
			t.Error("delivery attempts do not match", cmp.Diff(m.DeliveryAttempts, 2))
		}
	case <-time.After(time.Second):
		t.Fatal("retried message was not queued")
	}
}

func TestMsgRepo_Delay(t *testing.T) {
	maxDelay := 30 * time.Second
	for attempts := 1; attempts < 20; attempts++ {
		d := delay(attempts, maxDelay)
		if d > maxDelay {
			t.Errorf("delay %s exceeds max delay", d)
		}
		if d < time.Duration(attempts)*2*time.Second && d != maxDelay {
			t.Errorf("delay %s is shorter than backoff for %d attempts", d, attempts)
		}
	}
}
