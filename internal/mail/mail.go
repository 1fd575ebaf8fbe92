// Package mail sends transactional email through an HTTP email API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("mail api key is not configured")

type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type Client struct {
	apiURL string
	apiKey string
	from   string
	http   *http.Client
	logger *logrus.Logger
}

func NewClient(apiURL, apiKey, from string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether Send will try to deliver
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Send posts the message to the email API
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("mail message has no recipients")
	}

	payload := struct {
		From string `json:"from"`
		Message
	}{From: c.from, Message: msg}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	c.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Mail sent")
	return nil
}
