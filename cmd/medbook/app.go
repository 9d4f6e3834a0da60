package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/config"
	v1 "github.com/dmehra2102/prod-golang-projects/medbook/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/server"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/events"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/lock"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// app owns everything that needs an orderly shutdown.
type app struct {
	router  *gin.Engine
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, err
	}

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector(cfg.App.Name, reg)

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	log.Info("connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Enabled {
		client, err := lock.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		locker = lock.NewRedisLocker(client, cfg.Redis.LockTTL, log)
		log.Info("using redis booking lock", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("redis disabled; booking lock is per-process, run a single replica")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("publishing appointment events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	a.closers = append(a.closers, func() {
		if err := publisher.Close(); err != nil {
			log.Warn("event publisher close", zap.Error(err))
		}
	})

	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)

	auditSvc := service.NewAuditService(postgres.NewAuditRepository(db), m, log)
	a.closers = append(a.closers, auditSvc.Shutdown)

	calculator := schedule.NewCalculator(doctorRepo, appointmentRepo, log)
	validator := schedule.NewValidator(doctorRepo, calculator)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	doctorSvc := service.NewDoctorService(doctorRepo, calculator, auditSvc, m, loc, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, log)
	appointmentSvc := service.NewAppointmentService(
		appointmentRepo, doctorRepo, patientRepo, validator, locker, publisher, auditSvc, m, loc, log,
	)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, appointmentRepo, appointmentSvc, auditSvc, m, log)
	authSvc := service.NewAuthService(postgres.NewAdminRepository(db), doctorRepo, patientRepo, jwtManager, auditSvc, log)

	a.router = server.NewRouter(server.Options{
		Server:    cfg.Server,
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
		Log:       log,
		Metrics:   m,
		Gatherer:  reg,
		Tokens:    jwtManager,
		Ready:     sqlDB.PingContext,
	}, server.Handlers{
		Auth:          v1.NewAuthHandler(authSvc, log),
		Doctors:       v1.NewDoctorHandler(doctorSvc, loc, log),
		Patients:      v1.NewPatientHandler(patientSvc, log),
		Appointments:  v1.NewAppointmentHandler(appointmentSvc, loc, log),
		Prescriptions: v1.NewPrescriptionHandler(prescriptionSvc, log),
	})

	ok = true
	return a, nil
}
