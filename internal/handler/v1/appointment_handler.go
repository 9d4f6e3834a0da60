package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService interface {
	Book(ctx context.Context, cmd appointment.BookAppointmentCommand) (*appointment.Appointment, error)
	Update(ctx context.Context, cmd appointment.RescheduleAppointmentCommand) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id, patientID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID, caller domain.Identity) (*appointment.Appointment, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]*appointment.Summary, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, q service.ListPatientAppointmentsQuery) ([]*appointment.Summary, error)
}

type AppointmentHandler struct {
	svc AppointmentService
	loc *time.Location
	log *zap.Logger
}

func NewAppointmentHandler(svc AppointmentService, loc *time.Location, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, loc: loc, log: log}
}

type bookingRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	AppointmentTime string    `json:"appointment_time" binding:"required"`
}

func (h *AppointmentHandler) parseBooking(c *gin.Context) (bookingRequest, time.Time, bool) {
	var req bookingRequest
	if !bindJSON(c, &req) {
		return req, time.Time{}, false
	}
	at, err := parseTimestamp(req.AppointmentTime, h.loc)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid appointment_time: "+err.Error())
		return req, time.Time{}, false
	}
	return req, at, true
}

// respondBookingError reports an unknown doctor named in the request body as
// a bad request rather than a missing resource.
func (h *AppointmentHandler) respondBookingError(c *gin.Context, err error) {
	if errors.Is(err, doctor.ErrDoctorNotFound) {
		respondError(c, http.StatusBadRequest, "invalid doctor id")
		return
	}
	respondServiceError(c, h.log, err)
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	req, at, ok := h.parseBooking(c)
	if !ok {
		return
	}

	a, err := h.svc.Book(c.Request.Context(), appointment.BookAppointmentCommand{
		DoctorID:        req.DoctorID,
		PatientID:       mustIdentity(c).SubjectID,
		AppointmentTime: at,
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}
	respondCreated(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	req, at, ok := h.parseBooking(c)
	if !ok {
		return
	}

	a, err := h.svc.Update(c.Request.Context(), appointment.RescheduleAppointmentCommand{
		ID:              id,
		DoctorID:        req.DoctorID,
		PatientID:       mustIdentity(c).SubjectID,
		AppointmentTime: at,
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id, mustIdentity(c).SubjectID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondMessage(c, "appointment cancelled")
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id, mustIdentity(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

// ListForDoctor handles GET /appointments?date=YYYY-MM-DD&patient=name for
// the authenticated doctor.
func (h *AppointmentHandler) ListForDoctor(c *gin.Context) {
	date, ok := parseDate(c, "date", h.loc)
	if !ok {
		return
	}
	out, err := h.svc.ListForDoctor(c.Request.Context(), mustIdentity(c).SubjectID, date, c.Query("patient"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, out)
}

// ListForPatient handles GET /patients/me/appointments?condition=past|future&doctor=name.
func (h *AppointmentHandler) ListForPatient(c *gin.Context) {
	out, err := h.svc.ListForPatient(c.Request.Context(), mustIdentity(c).SubjectID, service.ListPatientAppointmentsQuery{
		Condition:  appointment.Condition(c.Query("condition")),
		DoctorName: c.Query("doctor"),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, out)
}
