package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Notification channels.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// notificationRoutes lists the channels each event is delivered to.
var notificationRoutes = map[events.EventType][]string{
	events.EventTicketCreated:       {ChannelEmail, ChannelWebhook},
	events.EventTicketNoteAdded:     {ChannelEmail, ChannelWebhook},
	events.EventTicketStatusChanged: {ChannelWebhook},
	events.EventTicketDeleted:       {ChannelWebhook},
	events.EventCustomerCreated:     {ChannelEmail, ChannelWebhook},
	events.EventUserDeleted:         {ChannelWebhook},
}

// Notification is one rendered outbound message.
type Notification struct {
	Channel   string
	Recipient string
	Subject   string
	Body      []byte
}

// NotificationService renders domain events into outbound notifications.
// Delivery is stubbed: rendered messages are logged, not sent.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{logger: logger, cfg: cfg}
}

// Notify renders and delivers event on every routed channel.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	notifications, err := n.Render(event)
	if err != nil {
		return err
	}
	for _, msg := range notifications {
		n.deliver(ctx, event, msg)
	}
	return nil
}

// Render builds the notifications for event. Channels without a configured
// destination are skipped.
func (n *NotificationService) Render(event events.Event) ([]Notification, error) {
	var out []Notification
	for _, channel := range notificationRoutes[event.Type] {
		switch channel {
		case ChannelEmail:
			recipient := n.emailRecipient(event)
			if recipient == "" || strings.TrimSpace(n.cfg.EmailFrom) == "" {
				continue
			}
			out = append(out, Notification{
				Channel:   ChannelEmail,
				Recipient: recipient,
				Subject:   emailSubject(event),
				Body:      []byte(emailBody(event)),
			})
		case ChannelWebhook:
			if strings.TrimSpace(n.cfg.WebhookURL) == "" {
				continue
			}
			body, err := json.Marshal(event)
			if err != nil {
				return nil, fmt.Errorf("encode webhook %s: %w", event.Type, err)
			}
			out = append(out, Notification{
				Channel:   ChannelWebhook,
				Recipient: n.cfg.WebhookURL,
				Subject:   string(event.Type),
				Body:      body,
			})
		}
	}
	return out, nil
}

// emailRecipient addresses welcome mail to the new customer and ticket
// activity to the staff inbox.
func (n *NotificationService) emailRecipient(event events.Event) string {
	if payload, ok := event.Payload.(events.UserPayload); ok && event.Type == events.EventCustomerCreated {
		return payload.Email
	}
	return strings.TrimSpace(n.cfg.StaffInbox)
}

func emailSubject(event events.Event) string {
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("New ticket: %s", p.Title)
	case events.TicketNoteAddedPayload:
		return fmt.Sprintf("New note on ticket %s", event.SubjectID)
	case events.UserPayload:
		return "Your helpdesk account is ready"
	}
	return string(event.Type)
}

func emailBody(event events.Event) string {
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("Ticket %s was opened for customer %s.\n\n%s\n", event.SubjectID, p.CustomerID, p.Title)
	case events.TicketNoteAddedPayload:
		return fmt.Sprintf("%s wrote on ticket %s:\n\n%s\n", p.AuthorID, event.SubjectID, p.BodyPreview)
	case events.UserPayload:
		return fmt.Sprintf("An account was created for %s. Sign in to follow your tickets.\n", p.Email)
	}
	return fmt.Sprintf("%s on %s\n", event.Type, event.SubjectID)
}

func (n *NotificationService) deliver(_ context.Context, event events.Event, msg Notification) {
	n.logger.Info("notification dispatched (stub)",
		zap.String("channel", msg.Channel),
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int("bytes", len(msg.Body)))
}
