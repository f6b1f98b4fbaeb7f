package audit

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type AuditServicer interface {
	List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
}

type Handler struct {
	service AuditServicer
}

func NewHandler(service AuditServicer) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/audit/logs/entity/:type/:id", h.GetEntityLogs)
}

func (h *Handler) GetEntityLogs(c *gin.Context) {
	entityID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	logs, err := h.service.List(c.Request.Context(), c.Param("type"), entityID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, logs)
}
