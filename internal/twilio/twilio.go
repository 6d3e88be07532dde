// Package twilio sends SMS messages through Twilio's REST API.
package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// client is a consumer of the Twilio API.
type client struct {
	baseURL    string
	accountSID string
	authToken  string
	smsSender  string
	httpClient *http.Client
}

// SMS sends an SMS message to a phone number.
func (c *client) SMS(ctx context.Context, phoneNumber string, message string) error {
	endpoint := fmt.Sprintf(
		"%s/Accounts/%s/Messages.json",
		c.baseURL,
		c.accountSID,
	)

	form := url.Values{}
	form.Set("To", phoneNumber)
	form.Set("From", c.smsSender)
	form.Set("Body", message)

	resp, err := c.request(ctx, endpoint, http.MethodPost, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("expected status %v, got %v: %s", http.StatusCreated, resp.StatusCode, body)
	}

	return nil
}

func (c *client) request(ctx context.Context, endpoint, method string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("cannot create HTTP request: %w", err)
	}

	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}

	return resp, nil
}
