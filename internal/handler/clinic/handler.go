package clinic

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type ClinicServicer interface {
	CreateClinic(ctx context.Context, req *model.CreateClinicRequest, actorID string) (*model.Clinic, error)
	GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	ListClinics(ctx context.Context) ([]*model.Clinic, error)
	AddService(ctx context.Context, clinicID uuid.UUID, req *model.CreateServiceRequest, actorID string) (*model.Service, error)
	ListServices(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error)
}

type Handler struct {
	service ClinicServicer
}

func NewHandler(service ClinicServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", h.CreateClinic)
		clinics.GET("", h.ListClinics)
		clinics.GET("/:id", h.GetClinic)
		clinics.POST("/:id/services", h.AddService)
		clinics.GET("/:id/services", h.ListServices)
	}
}

func (h *Handler) CreateClinic(c *gin.Context) {
	var req model.CreateClinicRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	clinic, err := h.service.CreateClinic(c.Request.Context(), &req, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, clinic)
}

func (h *Handler) GetClinic(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.service.GetClinic(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) ListClinics(c *gin.Context) {
	clinics, err := h.service.ListClinics(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinics)
}

func (h *Handler) AddService(c *gin.Context) {
	clinicID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CreateServiceRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	service, err := h.service.AddService(c.Request.Context(), clinicID, &req, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, service)
}

func (h *Handler) ListServices(c *gin.Context) {
	clinicID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	services, err := h.service.ListServices(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, services)
}
