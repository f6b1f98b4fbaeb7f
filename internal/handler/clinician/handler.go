package clinician

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type ClinicianServicer interface {
	CreateClinician(ctx context.Context, req *model.CreateClinicianRequest, actorID string) (*model.Clinician, error)
	GetClinician(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
	ListClinicClinicians(ctx context.Context, clinicID uuid.UUID) ([]*model.Clinician, error)
}

type Handler struct {
	service ClinicianServicer
}

func NewHandler(service ClinicianServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/clinicians", h.CreateClinician)
	r.GET("/clinicians/:id", h.GetClinician)
	r.GET("/clinics/:id/clinicians", h.ListClinicClinicians)
}

func (h *Handler) CreateClinician(c *gin.Context) {
	var req model.CreateClinicianRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	clinician, err := h.service.CreateClinician(c.Request.Context(), &req, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, clinician)
}

func (h *Handler) GetClinician(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	clinician, err := h.service.GetClinician(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinician)
}

func (h *Handler) ListClinicClinicians(c *gin.Context) {
	clinicID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	clinicians, err := h.service.ListClinicClinicians(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinicians)
}
