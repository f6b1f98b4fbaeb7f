package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

// SystemActor is recorded when no authenticated subject is known.
const SystemActor = "system"

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record writes one audit entry.
func (s *Service) Record(ctx context.Context, actorID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{}) error {
	var raw json.RawMessage
	if metadata != nil {
		var err error
		if raw, err = json.Marshal(metadata); err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
	}
	if actorID == "" {
		actorID = SystemActor
	}

	return s.repo.Create(ctx, &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   raw,
		CreatedAt:  s.now(),
	})
}

func (s *Service) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, entityType, entityID)
}

// Cleanup deletes entries older than retentionDays.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	return s.repo.DeleteBefore(ctx, cutoff)
}
