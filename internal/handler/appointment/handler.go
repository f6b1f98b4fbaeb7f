package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

// Scheduler is the part of appointment.Service the handler drives.
type Scheduler interface {
	Book(ctx context.Context, req *model.CreateAppointmentRequest, actorID string) (*appointment.Booking, error)
	ScheduleByNames(ctx context.Context, req *model.ScheduleByNameRequest, actorID string) (*appointment.Booking, error)
	FindSlot(ctx context.Context, doctorID, clinicID, serviceID uuid.UUID, requestedStart time.Time) (*appointment.SlotOffer, error)
	DoctorSchedule(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	Location() *time.Location
}

type Handler struct {
	service Scheduler
}

func NewHandler(service Scheduler) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/slots", h.FindSlot)
		appointments.POST("", h.CreateAppointment)
		appointments.POST("/by-name", h.CreateAppointmentByName)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
	}
	r.GET("/clinicians/:id/schedule", h.GetClinicianSchedule)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	booking, err := h.service.Book(c.Request.Context(), &req, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, booking)
}

func (h *Handler) CreateAppointmentByName(c *gin.Context) {
	var req model.ScheduleByNameRequest
	if !httputil.BindAndValidate(c, &req) {
		return
	}

	booking, err := h.service.ScheduleByNames(c.Request.Context(), &req, httputil.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, booking)
}

func (h *Handler) FindSlot(c *gin.Context) {
	ids := make(map[string]uuid.UUID, 3)
	for _, key := range []string{"clinician_id", "clinic_id", "service_id"} {
		id, err := uuid.Parse(c.Query(key))
		if err != nil {
			httputil.RespondBadRequest(c, "invalid "+key)
			return
		}
		ids[key] = id
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		httputil.RespondBadRequest(c, "start must be an RFC3339 timestamp")
		return
	}

	offer, err := h.service.FindSlot(c.Request.Context(), ids["clinician_id"], ids["clinic_id"], ids["service_id"], start)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, offer)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters
	for key, dst := range map[string]*uuid.UUID{
		"clinic_id":    &filters.ClinicID,
		"clinician_id": &filters.ClinicianID,
		"patient_id":   &filters.PatientID,
	} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondBadRequest(c, "invalid "+key)
			return
		}
		*dst = id
	}

	loc := h.service.Location()
	if date := c.Query("start_date"); date != "" {
		t, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			httputil.RespondBadRequest(c, "start_date must be YYYY-MM-DD")
			return
		}
		filters.StartDate = t
	}
	if date := c.Query("end_date"); date != "" {
		t, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			httputil.RespondBadRequest(c, "end_date must be YYYY-MM-DD")
			return
		}
		filters.EndDate = t.AddDate(0, 0, 1)
	}

	appointments, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

// GetClinicianSchedule lists one day of a clinician's bookings, today by default.
func (h *Handler) GetClinicianSchedule(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	loc := h.service.Location()
	date := time.Now().In(loc)
	if v := c.Query("date"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			httputil.RespondBadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		date = t
	}

	schedule, err := h.service.DoctorSchedule(c.Request.Context(), id, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{Status: "success", Data: gin.H{
		"clinician_id": id,
		"date":         date.Format("2006-01-02"),
		"appointments": schedule,
	}})
}
