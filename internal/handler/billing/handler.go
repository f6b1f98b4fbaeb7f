package billing

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type BillingServicer interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Bill, error)
	ListUnpaid(ctx context.Context) ([]*model.Bill, error)
	MarkPaid(ctx context.Context, id uuid.UUID, actorID string) (*model.Bill, error)
}

type Handler struct {
	service BillingServicer
}

func NewHandler(service BillingServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/patients/:id/bills", h.ListPatientBills)
	r.GET("/bills/unpaid", h.ListUnpaid)
	r.POST("/bills/:id/pay", h.MarkPaid)
}

func (h *Handler) ListPatientBills(c *gin.Context) {
	patientID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	bills, err := h.service.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bills)
}

func (h *Handler) ListUnpaid(c *gin.Context) {
	bills, err := h.service.ListUnpaid(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bills)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	bill, err := h.service.MarkPaid(c.Request.Context(), id, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bill)
}
