package audit

import (
	"context"

	"github.com/google/uuid"
)

// Recorder is what services need from the audit trail.
type Recorder interface {
	Log(ctx context.Context, actorID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{})
}
