package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/google/uuid"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errNoDatabase = errors.New("dry run: no database")

// dryConn satisfies gorm's pool and transaction interfaces. Nothing reaches
// it because the session only renders SQL.
type dryConn struct{}

func (dryConn) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (dryConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoDatabase
}

func (dryConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (dryConn) QueryRowContext(context.Context, string, ...any) *sql.Row { return nil }

func (dryConn) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	return &dryTx{}, nil
}

type dryTx struct{ dryConn }

func (*dryTx) Commit() error   { return nil }
func (*dryTx) Rollback() error { return nil }

// sqlRecorder keeps every statement gorm renders.
type sqlRecorder struct {
	gormlogger.Interface
	stmts []string
}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	stmt, _ := fc()
	r.stmts = append(r.stmts, stmt)
}

func (r *sqlRecorder) starting(verb string) []string {
	var out []string
	for _, s := range r.stmts {
		if strings.HasPrefix(s, verb) {
			out = append(out, s)
		}
	}
	return out
}

func dryRun(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{Interface: gormlogger.Discard}
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: dryConn{}}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               rec,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	return db, rec
}

func TestAppointmentWritesOnlyTouchScheduledRows(t *testing.T) {
	db, rec := dryRun(t)
	r := NewAppointmentRepository(db)
	ctx := context.Background()
	id := uuid.New()

	// A dry run matches no rows, so the follow-up count reports the row missing.
	err := r.Update(ctx, &appointment.Appointment{
		ID:              id,
		DoctorID:        uuid.New(),
		AppointmentTime: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:          appointment.StatusScheduled,
	})
	if !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("Update() error = %v, want ErrAppointmentNotFound", err)
	}
	if err := r.Delete(ctx, id); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("Delete() error = %v, want ErrAppointmentNotFound", err)
	}

	updates := rec.starting("UPDATE")
	if len(updates) != 1 {
		t.Fatalf("expected one UPDATE, got %q", rec.stmts)
	}
	set, where, ok := strings.Cut(updates[0], " WHERE ")
	if !ok {
		t.Fatalf("UPDATE without WHERE: %s", updates[0])
	}
	if strings.Contains(set, "status") {
		t.Errorf("UPDATE must not write status: %s", updates[0])
	}
	if !strings.Contains(where, "status = 0") || !strings.Contains(where, id.String()) {
		t.Errorf("UPDATE not limited to the scheduled row: %s", updates[0])
	}

	deletes := rec.starting("DELETE")
	if len(deletes) != 1 || !strings.Contains(deletes[0], "status = 0") {
		t.Errorf("DELETE not limited to scheduled rows: %q", deletes)
	}
}

func TestDoctorDeleteCascades(t *testing.T) {
	db, rec := dryRun(t)
	r := NewDoctorRepository(db)

	if err := r.Delete(context.Background(), uuid.New()); !errors.Is(err, doctor.ErrDoctorNotFound) {
		t.Fatalf("Delete() error = %v, want ErrDoctorNotFound", err)
	}

	want := []string{`"clinical"."prescriptions"`, `"clinical"."appointments"`, `"clinical"."doctors"`}
	deletes := rec.starting("DELETE")
	if len(deletes) != len(want) {
		t.Fatalf("DELETE statements = %q, want %d", deletes, len(want))
	}
	for i, table := range want {
		if !strings.Contains(deletes[i], table) {
			t.Errorf("DELETE #%d = %s, want table %s", i+1, deletes[i], table)
		}
	}
}
