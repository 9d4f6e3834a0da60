package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrPrescriptionExists   = errors.New("appointment already has a prescription")
)
