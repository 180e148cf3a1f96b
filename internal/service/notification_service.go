package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/notify"
	"github.com/spec-kit/contacts-service/internal/observability"
)

// NotificationService turns account events into outgoing mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleConfirmation)
	n.dispatcher.Subscribe(events.EventConfirmationResent, n.handleConfirmation)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordReset)
}

func (n *NotificationService) handleConfirmation(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AccountLinkPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	body := fmt.Sprintf("Hello %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link is valid for 24 hours.\n",
		payload.Username, payload.Link)
	return n.send(ctx, event, payload.Email, "Confirm your email", body)
}

func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AccountLinkPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password:\n\n%s\n\nThe link is valid for 1 hour. If you did not request a reset, ignore this message.\n",
		payload.Username, payload.Link)
	return n.send(ctx, event, payload.Email, "Reset your password", body)
}

func (n *NotificationService) send(ctx context.Context, event events.Event, to, subject, body string) error {
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		n.metrics.RecordNotification(string(event.Type), "failed")
		return err
	}
	n.logger.Debug("notification sent",
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID))
	n.metrics.RecordNotification(string(event.Type), "sent")
	return nil
}
