package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------- Helpers ----------

type fakeDoctors map[uuid.UUID]*doctor.Doctor

func (f fakeDoctors) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := f[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

type fakeAppointments struct {
	items []*appointment.Appointment
	err   error
}

func (f *fakeAppointments) FindByDoctorAndTimeRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*appointment.Appointment
	for _, a := range f.items {
		if a.DoctorID == doctorID && !a.AppointmentTime.Before(from) && a.AppointmentTime.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) book(doctorID uuid.UUID, at time.Time) *appointment.Appointment {
	a := &appointment.Appointment{ID: uuid.New(), DoctorID: doctorID, PatientID: uuid.New(), AppointmentTime: at}
	f.items = append(f.items, a)
	return a
}

var errStoreDown = errors.New("store unavailable")

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func newFixture(templates ...string) (*doctor.Doctor, fakeDoctors, *fakeAppointments, *Calculator) {
	d := &doctor.Doctor{ID: uuid.New(), Name: "Dr. Rao", AvailableTimes: templates}
	doctors := fakeDoctors{d.ID: d}
	appts := &fakeAppointments{}
	return d, doctors, appts, NewCalculator(doctors, appts, zap.NewNop())
}
