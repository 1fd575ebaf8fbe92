package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"estateportal/server/internal/models"
)

const DefaultBaseURL = "https://api.telegram.org"

type Option func(*Service)

// WithBaseURL points the service at another Bot API host
func WithBaseURL(url string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// Service pings the sales chat about bookings and contact requests
type Service struct {
	logger   *logrus.Logger
	client   *http.Client
	baseURL  string
	botToken string
	chatID   string
}

func NewService(botToken, chatID string, logger *logrus.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	s := &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  DefaultBaseURL,
		botToken: botToken,
		chatID:   chatID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether both the token and the chat are configured
func (s *Service) Enabled() bool {
	return s != nil && s.botToken != "" && s.chatID != ""
}

// SendMessage sends an HTML message to the configured chat. It is a no-op when disabled.
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.Enabled() {
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	payload := map[string]interface{}{
		"chat_id":    s.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyBooking announces a viewing request
func (s *Service) NotifyBooking(ctx context.Context, reference string, b models.BookingDetails) error {
	lines := []string{
		"<b>New viewing request</b>",
		"",
		"👤 " + html.EscapeString(b.Name),
	}
	if b.Email != "" {
		lines = append(lines, "✉️ "+html.EscapeString(b.Email))
	}
	if b.Phone != "" {
		lines = append(lines, "📞 "+html.EscapeString(b.Phone))
	}
	property := b.PropertyRef
	if b.PropertyTitle != "" {
		property = fmt.Sprintf("%s (%s)", b.PropertyTitle, b.PropertyRef)
	}
	lines = append(lines, "🏠 "+html.EscapeString(property))
	if b.PreferredDate != "" {
		lines = append(lines, "📅 "+html.EscapeString(b.PreferredDate))
	}
	if b.Message != "" {
		lines = append(lines, "", html.EscapeString(b.Message))
	}
	lines = append(lines, "", "Ref: <code>"+html.EscapeString(reference)+"</code>")

	return s.SendMessage(ctx, strings.Join(lines, "\n"))
}

// NotifyContact announces a contact form submission
func (s *Service) NotifyContact(ctx context.Context, c models.ContactRequest) error {
	lines := []string{
		"<b>New contact request</b>",
		"",
		"👤 " + html.EscapeString(c.Name),
		"✉️ " + html.EscapeString(c.Email),
	}
	if c.Phone != "" {
		lines = append(lines, "📞 "+html.EscapeString(c.Phone))
	}
	if c.PropertyRef != "" {
		lines = append(lines, "🏠 "+html.EscapeString(c.PropertyRef))
	}
	lines = append(lines, "", html.EscapeString(c.Message))

	return s.SendMessage(ctx, strings.Join(lines, "\n"))
}
