package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatientService interface {
	Register(ctx context.Context, cmd patient.RegisterPatientCommand) (*patient.Patient, error)
	Get(ctx context.Context, id uuid.UUID, caller domain.Identity) (*patient.Patient, error)
}

type PatientHandler struct {
	svc PatientService
	log *zap.Logger
}

func NewPatientHandler(svc PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{svc: svc, log: log}
}

type registerPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address"`
	Password string `json:"password" binding:"required"`
}

func (h *PatientHandler) Register(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Register(c.Request.Context(), patient.RegisterPatientCommand{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toPatientResponse(p))
}

func (h *PatientHandler) Me(c *gin.Context) {
	caller := mustIdentity(c)
	p, err := h.svc.Get(c.Request.Context(), caller.SubjectID, caller)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toPatientResponse(p))
}
