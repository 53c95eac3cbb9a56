package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartNotificationWorker starts the delivery pool and subscribes the notification
// handlers to the dispatcher. Handlers observe events inline; email and webhook
// sends go through pool.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, pool *DeliveryPool, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notificationService == nil {
		logger.Warn("notification service not configured; domain events will not be observed")
		return
	}
	if pool != nil {
		pool.Start(ctx)
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
