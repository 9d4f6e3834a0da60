package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/events"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/lock"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("connection refused")

// store is one in-memory database shared by every fake repository.
type store struct {
	mu            sync.Mutex
	doctors       map[uuid.UUID]*doctor.Doctor
	patients      map[uuid.UUID]*patient.Patient
	appointments  map[uuid.UUID]*appointment.Appointment
	prescriptions map[uuid.UUID]*prescription.Prescription
	admins        map[string]*domain.Admin
	audit         []*domain.AuditLog

	failAppointments bool
}

func newStore() *store {
	return &store{
		doctors:       make(map[uuid.UUID]*doctor.Doctor),
		patients:      make(map[uuid.UUID]*patient.Patient),
		appointments:  make(map[uuid.UUID]*appointment.Appointment),
		prescriptions: make(map[uuid.UUID]*prescription.Prescription),
		admins:        make(map[string]*domain.Admin),
	}
}

type doctorRepo struct{ s *store }

func (r doctorRepo) Create(_ context.Context, d *doctor.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.doctors {
		if o.Email == d.Email {
			return doctor.ErrDoctorAlreadyExists
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r doctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r doctorRepo) GetByEmail(_ context.Context, email string) (*doctor.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.doctors {
		if strings.EqualFold(d.Email, email) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r doctorRepo) Update(_ context.Context, d *doctor.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[d.ID]; !ok {
		return doctor.ErrDoctorNotFound
	}
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r doctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[id]; !ok {
		return doctor.ErrDoctorNotFound
	}
	for aid, p := range r.s.prescriptions {
		if p.DoctorID == id {
			delete(r.s.prescriptions, aid)
		}
	}
	for aid, a := range r.s.appointments {
		if a.DoctorID == id {
			delete(r.s.appointments, aid)
		}
	}
	delete(r.s.doctors, id)
	return nil
}

func (r doctorRepo) List(_ context.Context) ([]*doctor.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*doctor.Doctor
	for _, d := range r.s.doctors {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r doctorRepo) Search(ctx context.Context, q doctor.SearchQuery) ([]*doctor.Doctor, error) {
	all, _ := r.List(ctx)
	var out []*doctor.Doctor
	for _, d := range all {
		if q.Name != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.Specialty != "" && !strings.EqualFold(d.Specialty, q.Specialty) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type patientRepo struct{ s *store }

func (r patientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.s.patients[p.ID] = &cp
	return nil
}

func (r patientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r patientRepo) GetByEmail(_ context.Context, email string) (*patient.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.patients {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r patientRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.patients {
		if strings.EqualFold(p.Email, email) || p.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type appointmentRepo struct{ s *store }

func (r appointmentRepo) fail() error {
	if r.s.failAppointments {
		return errStoreDown
	}
	return nil
}

func (r appointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.s.appointments[a.ID] = &cp
	return nil
}

// scheduled mirrors the conditional writes of the postgres repository.
func (r appointmentRepo) scheduled(id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	if a.Status != appointment.StatusScheduled {
		return nil, appointment.ErrInvalidStatusTransition
	}
	return a, nil
}

func (r appointmentRepo) Update(_ context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	stored, err := r.scheduled(a.ID)
	if err != nil {
		return err
	}
	stored.DoctorID = a.DoctorID
	stored.AppointmentTime = a.AppointmentTime
	return nil
}

func (r appointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	if _, err := r.scheduled(id); err != nil {
		return err
	}
	delete(r.s.appointments, id)
	return nil
}

func (r appointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r appointmentRepo) FindByDoctorAndTimeRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && !a.AppointmentTime.Before(from) && a.AppointmentTime.Before(to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r appointmentRepo) FindByPatientID(_ context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r appointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status appointment.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	a, ok := r.s.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (r appointmentRepo) DeleteAllForDoctor(_ context.Context, doctorID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.appointments {
		if a.DoctorID == doctorID {
			delete(r.s.appointments, id)
		}
	}
	return nil
}

func (r appointmentRepo) summaries(keep func(*appointment.Appointment, *doctor.Doctor, *patient.Patient) bool) []*appointment.Summary {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*appointment.Summary
	for _, a := range r.s.appointments {
		d, p := r.s.doctors[a.DoctorID], r.s.patients[a.PatientID]
		if d == nil || p == nil || !keep(a, d, p) {
			continue
		}
		out = append(out, &appointment.Summary{
			ID: a.ID, DoctorID: d.ID, DoctorName: d.Name,
			PatientID: p.ID, PatientName: p.Name, PatientEmail: p.Email,
			PatientPhone: p.Phone, PatientAddress: p.Address,
			AppointmentTime: a.AppointmentTime, EndTime: a.EndsAt(), Status: a.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out
}

func (r appointmentRepo) ListForDoctor(_ context.Context, q appointment.DoctorDayQuery) ([]*appointment.Summary, error) {
	return r.summaries(func(a *appointment.Appointment, _ *doctor.Doctor, p *patient.Patient) bool {
		return a.DoctorID == q.DoctorID &&
			!a.AppointmentTime.Before(q.From) && a.AppointmentTime.Before(q.To) &&
			strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.PatientName))
	}), nil
}

func (r appointmentRepo) ListForPatient(_ context.Context, q appointment.PatientQuery) ([]*appointment.Summary, error) {
	return r.summaries(func(a *appointment.Appointment, d *doctor.Doctor, _ *patient.Patient) bool {
		return a.PatientID == q.PatientID &&
			(q.Status == nil || a.Status == *q.Status) &&
			strings.Contains(strings.ToLower(d.Name), strings.ToLower(q.DoctorName))
	}), nil
}

type prescriptionRepo struct{ s *store }

func (r prescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.prescriptions[p.AppointmentID]; ok {
		return prescription.ErrPrescriptionExists
	}
	p.ID = uuid.New()
	cp := *p
	r.s.prescriptions[p.AppointmentID] = &cp
	return nil
}

func (r prescriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for aid, p := range r.s.prescriptions {
		if p.ID == id {
			delete(r.s.prescriptions, aid)
		}
	}
	return nil
}

func (r prescriptionRepo) GetByAppointmentID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prescriptions[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

type adminRepo struct{ s *store }

func (r adminRepo) GetByUsername(_ context.Context, username string) (*domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[username]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (r adminRepo) Upsert(_ context.Context, a *domain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.admins[a.Username]; ok {
		existing.PasswordHash = a.PasswordHash
		return nil
	}
	a.ID = uuid.New()
	cp := *a
	r.s.admins[a.Username] = &cp
	return nil
}

type auditRepo struct{ s *store }

func (r auditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, e)
	return nil
}

// fulfilOnRead hands out a scheduled copy and then fulfils the stored row,
// as if a prescription were saved between two reads. With stale set every
// later read returns that first copy too.
type fulfilOnRead struct {
	appointmentRepo
	stale bool
	seen  *appointment.Appointment
}

func (r *fulfilOnRead) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	if r.stale && r.seen != nil {
		cp := *r.seen
		return &cp, nil
	}
	a, err := r.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.seen == nil {
		cp := *a
		r.seen = &cp
		if err := r.appointmentRepo.UpdateStatus(ctx, id, appointment.StatusFulfilled); err != nil {
			return nil, err
		}
	}
	return a, nil
}

type brokenLocker struct{}

func (brokenLocker) Lock(context.Context, string) (lock.Unlock, error) {
	return nil, errStoreDown
}

// recordingPublisher keeps published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fixture wires every service over one in-memory store.
type fixture struct {
	store        *store
	publisher    *recordingPublisher
	appointments *AppointmentService
	doctors      *DoctorService
	patients     *PatientService
	prescription *PrescriptionService
	auth         *AuthService
	audit        *AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newStore()
	log := zap.NewNop()
	m := metrics.NewNop()
	pub := &recordingPublisher{}

	audit := NewAuditService(auditRepo{s}, m, log)
	t.Cleanup(audit.Shutdown)

	calc := schedule.NewCalculator(doctorRepo{s}, appointmentRepo{s}, log)
	appts := newAppointmentService(s, appointmentRepo{s}, lock.NewMemoryLocker(), pub, audit)

	return &fixture{
		store:        s,
		publisher:    pub,
		appointments: appts,
		doctors:      NewDoctorService(doctorRepo{s}, calc, audit, m, time.UTC, log),
		patients:     NewPatientService(patientRepo{s}, audit, log),
		prescription: NewPrescriptionService(prescriptionRepo{s}, appointmentRepo{s}, appts, audit, m, log),
		auth:         NewAuthService(adminRepo{s}, doctorRepo{s}, patientRepo{s}, newJWT(), audit, log),
		audit:        audit,
	}
}

func newAppointmentService(s *store, repo appointment.Repository, locker lock.Locker, pub events.Publisher, audit *AuditService) *AppointmentService {
	log := zap.NewNop()
	calc := schedule.NewCalculator(doctorRepo{s}, repo, log)
	return NewAppointmentService(repo, doctorRepo{s}, patientRepo{s},
		schedule.NewValidator(doctorRepo{s}, calc), locker, pub, audit, metrics.NewNop(), time.UTC, log)
}

// appointmentsWith builds a second AppointmentService over the fixture's
// store with the given repository and locker.
func (f *fixture) appointmentsWith(repo appointment.Repository, locker lock.Locker) *AppointmentService {
	return newAppointmentService(f.store, repo, locker, f.publisher, f.audit)
}

func (f *fixture) addDoctor(name string, templates ...string) *doctor.Doctor {
	d := &doctor.Doctor{
		ID:             uuid.New(),
		Name:           name,
		Specialty:      "Cardiology",
		Email:          strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@clinic.test",
		Phone:          "5550100",
		AvailableTimes: templates,
	}
	_ = doctorRepo{f.store}.Create(context.Background(), d)
	return d
}

func (f *fixture) addPatient(name string) *patient.Patient {
	p := &patient.Patient{
		ID:    uuid.New(),
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@mail.test",
		Phone: uuid.NewString()[:12],
	}
	_ = patientRepo{f.store}.Create(context.Background(), p)
	return p
}

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}
