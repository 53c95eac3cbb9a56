package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

// Repositories groups the Postgres-backed stores.
type Repositories struct {
	Profiles      repository.ProfileRepository
	Collaborators repository.CollaboratorRepository
	Devices       repository.DeviceRepository
	Invites       repository.InviteRepository
	Tickets       repository.TicketRepository
	Deactivation  repository.DeactivationRepository
	SystemLogs    repository.SystemLogRepository
}

// Container holds the wired services shared by the API server and the admin CLI.
type Container struct {
	Repos         Repositories
	Dispatcher    events.Dispatcher
	Auth          *service.AuthService
	Invites       *service.InviteService
	Registration  *service.RegistrationService
	Deactivation  *service.DeactivationService
	Tickets       *service.TicketService
	Resources     *service.ResourceService
	Notifications *service.NotificationService
	Deliveries    *worker.DeliveryPool
}

const deliveryTimeout = 30 * time.Second

// NewRepositories builds every repository over pool.
func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Profiles:      repository.NewProfileRepository(pool),
		Collaborators: repository.NewCollaboratorRepository(pool),
		Devices:       repository.NewDeviceRepository(pool),
		Invites:       repository.NewInviteRepository(pool),
		Tickets:       repository.NewTicketRepository(pool),
		Deactivation:  repository.NewDeactivationRepository(pool),
		SystemLogs:    repository.NewSystemLogRepository(pool),
	}
}

// NewContainer wires services over repos and registers the notification handlers.
func NewContainer(cfg *config.Config, repos Repositories, logger *zap.Logger, metrics *observability.Metrics) *Container {
	dispatcher := events.NewInMemoryDispatcher()
	audit := service.NewAuditSink(repos.SystemLogs, cfg.Audit.Timeout(), logger)

	invites := service.NewInviteService(service.InviteDependencies{
		InviteRepo:    repos.Invites,
		ProfileRepo:   repos.Profiles,
		Audit:         audit,
		Dispatcher:    dispatcher,
		Logger:        logger,
		TTL:           cfg.Invite.TTL(),
		MaxAttempts:   cfg.Invite.MaxIssueAttempts,
		DefaultReason: cfg.Invite.DefaultRevokeNotes,
	})

	deliveries := worker.NewDeliveryPool(cfg.Notification.Workers, cfg.Notification.QueueSize, deliveryTimeout, logger)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Mailer:     newMailer(cfg.Notification),
		Webhook:    newWebhook(cfg.Notification),
		Deliverer:  deliveries,
		TicketRepo: repos.Tickets,
		DeviceRepo: repos.Devices,
	})
	worker.StartNotificationWorker(context.Background(), notifications, deliveries, logger)

	return &Container{
		Repos:      repos,
		Dispatcher: dispatcher,
		Auth: service.NewAuthService(*cfg, service.AuthDependencies{
			ProfileRepo:      repos.Profiles,
			CollaboratorRepo: repos.Collaborators,
			DeviceRepo:       repos.Devices,
		}),
		Invites:      invites,
		Registration: service.NewRegistrationService(invites, repos.Profiles, cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLength, logger),
		Deactivation: service.NewDeactivationService(service.DeactivationDependencies{
			ProfileRepo:      repos.Profiles,
			DeactivationRepo: repos.Deactivation,
			Audit:            audit,
			Dispatcher:       dispatcher,
			Logger:           logger,
		}),
		Tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo:       repos.Tickets,
			CollaboratorRepo: repos.Collaborators,
			DeviceRepo:       repos.Devices,
			Dispatcher:       dispatcher,
			Labels:           service.NewTransitionLabels(cfg.Ticket.Locale),
			Logger:           logger,
		}),
		Resources: service.NewResourceService(service.ResourceDependencies{
			ProfileRepo:      repos.Profiles,
			CollaboratorRepo: repos.Collaborators,
			DeviceRepo:       repos.Devices,
			BcryptCost:       cfg.Auth.BcryptCost,
			MinPassword:      cfg.Auth.MinPasswordLength,
		}),
		Notifications: notifications,
		Deliveries:    deliveries,
	}
}

// Shutdown drains pending notification deliveries.
func (c *Container) Shutdown(ctx context.Context) {
	if c.Deliveries != nil {
		c.Deliveries.Stop(ctx)
	}
}

func newMailer(cfg config.NotificationConfig) notify.Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
	})
}

func newWebhook(cfg config.NotificationConfig) notify.Webhook {
	if cfg.WebhookURL == "" {
		return nil
	}
	return notify.NewHTTPWebhook(cfg.WebhookURL, cfg.WebhookTimeout())
}
