// Package mail delivers email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type service struct {
	serverAddr string
	fromAddr   string
	auth       smtp.Auth
	mailFn     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Email delivers a plain text email to an email address.
func (s *service) Email(ctx context.Context, email, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.mailFn(s.serverAddr, s.auth, s.fromAddr, []string{email}, s.compose(email, subject, message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *service) compose(to, subject, message string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.fromAddr)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", stripNewlines(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(message)
	return b.Bytes()
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
