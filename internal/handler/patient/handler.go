package patient

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type PatientServicer interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest, actorID string) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	RegisterWithClinic(ctx context.Context, patientID, clinicID uuid.UUID, actorID string) error
	ListClinicPatients(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error)
}

type Handler struct {
	service PatientServicer
}

func NewHandler(service PatientServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/patients", h.CreatePatient)
	r.GET("/patients/:id", h.GetPatient)
	r.POST("/patients/:id/clinics", h.RegisterWithClinic)
	r.GET("/clinics/:id/patients", h.ListClinicPatients)
}

type registerRequest struct {
	ClinicID uuid.UUID `json:"clinic_id" validate:"required"`
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	patient, err := h.service.CreatePatient(c.Request.Context(), &req, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, patient)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	patient, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) RegisterWithClinic(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req registerRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	if err := h.service.RegisterWithClinic(c.Request.Context(), id, req.ClinicID, httputil.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"patient_id": id, "clinic_id": req.ClinicID})
}

func (h *Handler) ListClinicPatients(c *gin.Context) {
	clinicID, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	patients, err := h.service.ListClinicPatients(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}
