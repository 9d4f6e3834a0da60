package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/prescription"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PrescriptionService interface {
	Save(ctx context.Context, cmd prescription.CreatePrescriptionCommand, caller domain.Identity) (*prescription.Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID, caller domain.Identity) (*prescription.Prescription, error)
}

type PrescriptionHandler struct {
	svc PrescriptionService
	log *zap.Logger
}

func NewPrescriptionHandler(svc PrescriptionService, log *zap.Logger) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc, log: log}
}

type createPrescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	PatientName   string    `json:"patient_name" binding:"required"`
	Medication    string    `json:"medication" binding:"required"`
	Dosage        string    `json:"dosage" binding:"required"`
	DoctorNotes   string    `json:"doctor_notes"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	caller := mustIdentity(c)
	p, err := h.svc.Save(c.Request.Context(), prescription.CreatePrescriptionCommand{
		AppointmentID: req.AppointmentID,
		DoctorID:      caller.SubjectID,
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
	}, caller)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toPrescriptionResponse(p))
}

func (h *PrescriptionHandler) GetByAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "appointmentId")
	if !ok {
		return
	}
	p, err := h.svc.GetByAppointment(c.Request.Context(), id, mustIdentity(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toPrescriptionResponse(p))
}
