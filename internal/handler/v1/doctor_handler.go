package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/schedule"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DoctorService interface {
	Create(ctx context.Context, cmd doctor.CreateDoctorCommand) (*doctor.Doctor, error)
	Update(ctx context.Context, id uuid.UUID, cmd doctor.UpdateDoctorCommand) (*doctor.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	List(ctx context.Context) ([]*doctor.Doctor, error)
	Search(ctx context.Context, q doctor.SearchQuery, period schedule.Period) ([]*doctor.Doctor, error)
	Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
}

type DoctorHandler struct {
	svc DoctorService
	loc *time.Location
	log *zap.Logger
}

func NewDoctorHandler(svc DoctorService, loc *time.Location, log *zap.Logger) *DoctorHandler {
	return &DoctorHandler{svc: svc, loc: loc, log: log}
}

type createDoctorRequest struct {
	Name           string   `json:"name" binding:"required"`
	Specialty      string   `json:"specialty" binding:"required"`
	Email          string   `json:"email" binding:"required"`
	Phone          string   `json:"phone" binding:"required"`
	Password       string   `json:"password" binding:"required"`
	AvailableTimes []string `json:"available_times"`
}

type updateDoctorRequest struct {
	Name           *string   `json:"name"`
	Specialty      *string   `json:"specialty"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	AvailableTimes *[]string `json:"available_times"`
}

type availabilityResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}

func (h *DoctorHandler) Create(c *gin.Context) {
	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.Create(c.Request.Context(), doctor.CreateDoctorCommand{
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		AvailableTimes: req.AvailableTimes,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toDoctorResponse(d))
}

func (h *DoctorHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.Update(c.Request.Context(), id, doctor.UpdateDoctorCommand{
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		Phone:          req.Phone,
		AvailableTimes: req.AvailableTimes,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

func (h *DoctorHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondMessage(c, "doctor deleted")
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

func (h *DoctorHandler) List(c *gin.Context) {
	ds, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toDoctorResponses(ds))
}

// Search handles GET /doctors/search?name=&specialty=&time=AM|PM.
func (h *DoctorHandler) Search(c *gin.Context) {
	period, ok := schedule.ParsePeriod(c.Query("time"))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid time: expected AM or PM")
		return
	}

	ds, err := h.svc.Search(c.Request.Context(), doctor.SearchQuery{
		Name:      c.Query("name"),
		Specialty: c.Query("specialty"),
	}, period)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toDoctorResponses(ds))
}

// Availability handles GET /doctors/:id/availability?date=YYYY-MM-DD&time=AM|PM.
func (h *DoctorHandler) Availability(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	date, ok := parseDate(c, "date", h.loc)
	if !ok {
		return
	}
	period, ok := schedule.ParsePeriod(c.Query("time"))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid time: expected AM or PM")
		return
	}

	slots, err := h.svc.Availability(c.Request.Context(), id, date)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, availabilityResponse{
		DoctorID: id,
		Date:     date.Format(time.DateOnly),
		Slots:    schedule.FilterSlots(slots, period),
	})
}
