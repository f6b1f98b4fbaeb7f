package medical

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type HistoryServicer interface {
	History(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
}

type Handler struct {
	service HistoryServicer
}

func NewHandler(service HistoryServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/patients/:id/history", h.GetHistory)
}

func (h *Handler) GetHistory(c *gin.Context) {
	patientID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	records, err := h.service.History(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}
