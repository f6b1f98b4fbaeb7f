package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

// AuditLogger records entries in the background. Failures are logged and
// never reach the caller.
type AuditLogger struct {
	service *Service
	logger  *logger.Logger
	wg      sync.WaitGroup
}

func NewAuditLogger(service *Service, log *logger.Logger) *AuditLogger {
	return &AuditLogger{
		service: service,
		logger:  log,
	}
}

func (l *AuditLogger) Log(ctx context.Context, actorID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{}) {
	ctx = context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.service.Record(ctx, actorID, action, entityType, entityID, metadata); err != nil {
			l.logger.Error(err, "failed to write audit log",
				"action", action,
				"entity_type", entityType,
				"entity_id", entityID.String())
		}
	}()
}

func (l *AuditLogger) LogSync(ctx context.Context, actorID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{}) error {
	return l.service.Record(ctx, actorID, action, entityType, entityID, metadata)
}

// Wait blocks until every pending entry has been written.
func (l *AuditLogger) Wait() {
	l.wg.Wait()
}
