package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Deliverer runs a delivery in the background. Submit reports false when it was dropped.
type Deliverer interface {
	Submit(name string, fn func(context.Context) error) bool
}

// NotificationService observes domain events and fans them out to email and webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	mailer     notify.Mailer
	webhook    notify.Webhook
	deliverer  Deliverer
	tickets    repository.TicketRepository
	devices    repository.DeviceRepository
}

// NotificationDependencies bundles collaborators for the notification service.
// Mailer, Webhook and Deliverer are optional; without a Deliverer sends run inline.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Mailer     notify.Mailer
	Webhook    notify.Webhook
	Deliverer  Deliverer
	TicketRepo repository.TicketRepository
	DeviceRepo repository.DeviceRepository
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		mailer:     deps.Mailer,
		webhook:    deps.Webhook,
		deliverer:  deps.Deliverer,
		tickets:    deps.TicketRepo,
		devices:    deps.DeviceRepo,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
	n.dispatcher.Subscribe(events.EventInviteConsumed, n.handleAdminEvent)
	n.dispatcher.Subscribe(events.EventInviteRevoked, n.handleAdminEvent)
	n.dispatcher.Subscribe(events.EventProfileDeactivated, n.handleAdminEvent)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.observe(event)
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.observe(event)
	n.postWebhook(ctx, event)
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	n.emailRequester(ctx, event, func(ticket *domain.Ticket) notify.Message {
		return notify.Message{
			Subject: fmt.Sprintf("[%s] status changed to %s", ticket.TicketNumber, payload.NewStatus),
			Body: fmt.Sprintf("Your ticket %q moved from %s to %s.",
				ticket.Title, payload.OldStatus, payload.NewStatus),
		}
	})
	return nil
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	n.observe(event)
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	// Internal notes and the requester's own comments are not mailed.
	if !ok || payload.IsInternal || payload.AuthorKind == domain.AuthorKindDevice {
		return nil
	}
	n.emailRequester(ctx, event, func(ticket *domain.Ticket) notify.Message {
		return notify.Message{
			Subject: fmt.Sprintf("[%s] new reply", ticket.TicketNumber),
			Body:    payload.BodyPreview,
		}
	})
	return nil
}

func (n *NotificationService) handleAdminEvent(ctx context.Context, event events.Event) error {
	n.observe(event)
	if event.Type != events.EventInviteConsumed {
		n.postWebhook(ctx, event)
	}
	return nil
}

func (n *NotificationService) observe(event events.Event) {
	n.metrics.RecordDomainEvent(string(event.Type))
	n.logger.Info(string(event.Type),
		zap.String("aggregate_id", event.AggregateID),
		zap.String("actor_kind", string(event.Actor.Kind)),
		zap.Any("payload", event.Payload))
}

type webhookEvent struct {
	Type        events.EventType `json:"type"`
	AggregateID string           `json:"aggregate_id"`
	ActorKind   string           `json:"actor_kind,omitempty"`
	ActorID     string           `json:"actor_id,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Payload     any              `json:"payload,omitempty"`
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) {
	if n.webhook == nil {
		return
	}
	body := webhookEvent{
		Type:        event.Type,
		AggregateID: event.AggregateID,
		ActorKind:   string(event.Actor.Kind),
		ActorID:     event.Actor.ID,
		Timestamp:   event.Timestamp,
		Payload:     event.Payload,
	}
	n.deliver(ctx, "webhook:"+string(event.Type), func(ctx context.Context) error {
		return n.webhook.Post(ctx, body)
	})
}

// emailRequester mails the device user who opened the ticket. Profile-opened tickets have no requester address.
func (n *NotificationService) emailRequester(ctx context.Context, event events.Event, compose func(*domain.Ticket) notify.Message) {
	if n.mailer == nil || n.tickets == nil || n.devices == nil {
		return
	}
	ticketID := event.AggregateID
	n.deliver(ctx, "email:"+string(event.Type), func(ctx context.Context) error {
		ticket, err := n.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("load ticket %s: %w", ticketID, err)
		}
		if ticket.DeviceID == nil {
			return nil
		}
		device, err := n.devices.GetDeviceByID(ctx, *ticket.DeviceID)
		if err != nil {
			return fmt.Errorf("load device %s: %w", *ticket.DeviceID, err)
		}
		to := strings.TrimSpace(device.UserEmail)
		if to == "" || !device.IsActive {
			return nil
		}
		msg := compose(ticket)
		msg.To = to
		return n.mailer.Send(ctx, msg)
	})
}

func (n *NotificationService) deliver(ctx context.Context, name string, fn func(context.Context) error) {
	if n.deliverer != nil {
		if !n.deliverer.Submit(name, fn) {
			n.metrics.RecordDomainEvent("delivery_dropped")
		}
		return
	}
	if err := fn(ctx); err != nil {
		n.logger.Warn("delivery failed", zap.String("delivery", name), zap.Error(err))
	}
}
