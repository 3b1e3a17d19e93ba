package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/events"
	"github.com/sessionkit/cookie-session/internal/observability"
)

// StartAuditWorker subscribes an audit trail to every session event: each one
// is logged and counted.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, auditHandler(logger, metrics))
	}
}

func auditHandler(logger *zap.Logger, metrics *observability.Metrics) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		metrics.RecordEvent(string(event.Type))
		logger.Info("audit",
			zap.String("event_id", event.ID),
			zap.String("event", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Time("at", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
		return nil
	}
}
