package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrSlotTaken               = errors.New("appointment time slot is not available")
	ErrUnauthorized            = errors.New("appointment belongs to another patient")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
)
