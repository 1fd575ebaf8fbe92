// Package chatbot answers visitor questions about listings and takes viewing bookings.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"estateportal/server/config"
	"estateportal/server/internal/filter"
	"estateportal/server/internal/llm"
	mailer "estateportal/server/internal/mail"
	"estateportal/server/internal/models"
)

const ActionBookViewing = "book_viewing"

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrInvalidBooking = errors.New("invalid booking details")

	// ErrBookingUndelivered means no sales channel accepted the booking
	ErrBookingUndelivered = errors.New("booking could not be delivered")
)

type Store interface {
	ListActiveProperties(ctx context.Context) ([]models.Property, error)
	FindByRefNo(ctx context.Context, refNo string) (*models.Property, error)
}

type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, msg mailer.Message) error
}

type Notifier interface {
	Enabled() bool
	NotifyBooking(ctx context.Context, reference string, b models.BookingDetails) error
}

type Bot struct {
	store          Store
	llm            llm.Client
	mail           Mailer
	notifier       Notifier
	salesInbox     string
	maxSuggestions int
	maxHistory     int
	newID          func() string
	logger         *logrus.Logger
}

type Option func(*Bot)

func WithSalesInbox(addr string) Option {
	return func(b *Bot) { b.salesInbox = addr }
}

// WithLimits caps suggested listings and the conversation turns sent to the model
func WithLimits(maxSuggestions, maxHistory int) Option {
	return func(b *Bot) {
		if maxSuggestions > 0 {
			b.maxSuggestions = maxSuggestions
		}
		if maxHistory >= 0 {
			b.maxHistory = maxHistory
		}
	}
}

// WithIDGenerator replaces the booking reference generator
func WithIDGenerator(fn func() string) Option {
	return func(b *Bot) { b.newID = fn }
}

// NewBot wires the assistant. client may be nil, in which case only bookings work.
func NewBot(store Store, client llm.Client, m Mailer, n Notifier, logger *logrus.Logger, opts ...Option) *Bot {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	b := &Bot{
		store:          store,
		llm:            client,
		mail:           m,
		notifier:       n,
		maxSuggestions: 3,
		maxHistory:     10,
		newID:          uuid.NewString,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle dispatches a chat request
func (b *Bot) Handle(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	if req.Action == ActionBookViewing {
		return b.Book(ctx, req)
	}
	return b.Reply(ctx, req)
}

// Suggest returns the cheapest active listings matching the criteria
func (b *Bot) Suggest(ctx context.Context, c Criteria) ([]models.Listing, error) {
	if c.Empty() {
		return []models.Listing{}, nil
	}

	rows, err := b.store.ListActiveProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	listings := make([]models.Listing, 0, len(rows))
	for i := range rows {
		l := rows[i].Listing()
		if c.Region != "" {
			region, _ := config.MatchRegion(l.Location + " " + l.Title)
			if region == nil || region.Slug != c.Region {
				continue
			}
		}
		listings = append(listings, l)
	}

	spec := c.Filter
	spec.SortBy = "price-low"
	matched := filter.Apply(listings, spec)
	if len(matched) > b.maxSuggestions {
		matched = matched[:b.maxSuggestions]
	}
	return matched, nil
}

// Reply answers a visitor message in their language with matching listings attached
func (b *Bot) Reply(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return models.ChatResponse{}, ErrEmptyMessage
	}
	if b.llm == nil {
		return models.ChatResponse{}, llm.ErrNotConfigured
	}

	lang := replyLanguage(req.Language, message)
	criteria := ExtractCriteria(message)
	suggestions, err := b.Suggest(ctx, criteria)
	if err != nil {
		return models.ChatResponse{}, err
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt(lang, suggestions)}}
	messages = append(messages, b.history(req.ConversationHistory)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	answer, err := b.llm.Complete(ctx, llm.Request{Messages: messages, Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to generate reply: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"language":    lang,
		"suggestions": len(suggestions),
		"region":      criteria.Region,
		"district":    criteria.Filter.District,
	}).Info("Chat reply generated")

	return models.ChatResponse{Response: answer, Properties: suggestions, Language: lang}, nil
}

// history keeps the last maxHistory user and assistant turns
func (b *Bot) history(turns []models.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case llm.RoleUser, llm.RoleAssistant:
			out = append(out, llm.Message{Role: t.Role, Content: content})
		}
	}
	if len(out) > b.maxHistory {
		out = out[len(out)-b.maxHistory:]
	}
	return out
}

func systemPrompt(lang string, suggestions []models.Listing) string {
	name := "English"
	if l := config.GetLanguageByCode(lang); l != nil {
		name = l.Name
	}

	regions := config.GetRegions()
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the property assistant of an international real estate agency selling in %s. ", strings.Join(names, ", "))
	fmt.Fprintf(&sb, "Always answer in %s. Be concise and friendly, and never invent listings or prices.\n", name)
	if len(suggestions) == 0 {
		sb.WriteString("No listing matched the visitor's request yet. Ask about their preferred region, budget and number of bedrooms.")
		return sb.String()
	}
	sb.WriteString("These listings match the request; mention them and offer to book a viewing:\n")
	for _, l := range suggestions {
		fmt.Fprintf(&sb, "- %s | %s | %s | %s bedrooms | ref %s\n", l.Title, l.Location, l.Price, l.Bedrooms, l.RefNo)
	}
	return sb.String()
}

func validateBooking(d *models.BookingDetails) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.PropertyRef = strings.TrimSpace(d.PropertyRef)

	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidBooking)
	case d.Email == "" && d.Phone == "":
		return fmt.Errorf("%w: email or phone is required", ErrInvalidBooking)
	case d.PropertyRef == "":
		return fmt.Errorf("%w: property reference is required", ErrInvalidBooking)
	}
	if d.Email != "" {
		if _, err := mail.ParseAddress(d.Email); err != nil {
			return fmt.Errorf("%w: invalid email address", ErrInvalidBooking)
		}
	}
	return nil
}

// Book forwards a viewing request to sales by email and Telegram and confirms it to the
// visitor. It fails only when no sales channel accepted the request.
func (b *Bot) Book(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	if req.BookingDetails == nil {
		return models.ChatResponse{}, fmt.Errorf("%w: booking details are required", ErrInvalidBooking)
	}
	details := *req.BookingDetails
	if err := validateBooking(&details); err != nil {
		return models.ChatResponse{}, err
	}

	if details.PropertyTitle == "" {
		p, err := b.store.FindByRefNo(ctx, details.PropertyRef)
		if err != nil {
			b.logger.WithError(err).WithField("ref_no", details.PropertyRef).Warn("Failed to look up booked property")
		} else if p != nil {
			details.PropertyTitle = p.Title
		}
	}

	lang := replyLanguage(req.Language, details.Message+" "+req.Message)
	reference := b.newID()
	logger := b.logger.WithFields(logrus.Fields{"reference": reference, "ref_no": details.PropertyRef})

	delivered := 0
	if b.mail != nil && b.mail.Enabled() && b.salesInbox != "" {
		if err := b.mail.Send(ctx, salesMessage(b.salesInbox, reference, details)); err != nil {
			logger.WithError(err).Error("Failed to email booking to sales")
		} else {
			delivered++
		}
	}
	if b.notifier != nil && b.notifier.Enabled() {
		if err := b.notifier.NotifyBooking(ctx, reference, details); err != nil {
			logger.WithError(err).Error("Failed to notify sales chat")
		} else {
			delivered++
		}
	}
	if delivered == 0 {
		return models.ChatResponse{}, ErrBookingUndelivered
	}

	property := propertyLabel(details)
	confirmation := fmt.Sprintf(localized(confirmations, lang), details.Name, property, reference)

	if details.Email != "" && b.mail != nil && b.mail.Enabled() {
		msg := mailer.Message{
			To:      []string{details.Email},
			Subject: localized(clientSubjects, lang),
			HTML:    "<p>" + html.EscapeString(confirmation) + "</p>",
			Text:    confirmation,
		}
		if err := b.mail.Send(ctx, msg); err != nil {
			logger.WithError(err).Warn("Failed to send booking confirmation")
		}
	}

	logger.WithField("channels", delivered).Info("Viewing booked")

	return models.ChatResponse{
		Response:         confirmation,
		Properties:       []models.Listing{},
		Language:         lang,
		BookingReference: reference,
	}, nil
}

func propertyLabel(d models.BookingDetails) string {
	if d.PropertyTitle == "" {
		return d.PropertyRef
	}
	return fmt.Sprintf("%s (%s)", d.PropertyTitle, d.PropertyRef)
}

func salesMessage(to, reference string, d models.BookingDetails) mailer.Message {
	rows := [][2]string{
		{"Reference", reference},
		{"Property", propertyLabel(d)},
		{"Name", d.Name},
		{"Email", d.Email},
		{"Phone", d.Phone},
		{"Preferred date", d.PreferredDate},
		{"Message", d.Message},
	}

	var sb strings.Builder
	sb.WriteString("<h2>New viewing request</h2><table>")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&sb, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", r[0], html.EscapeString(r[1]))
	}
	sb.WriteString("</table>")

	return mailer.Message{
		To:      []string{to},
		Subject: "Viewing request: " + propertyLabel(d),
		HTML:    sb.String(),
		ReplyTo: d.Email,
	}
}
