package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	v1 "github.com/dmehra2102/prod-golang-projects/medbook/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth          *v1.AuthHandler
	Doctors       *v1.DoctorHandler
	Patients      *v1.PatientHandler
	Appointments  *v1.AppointmentHandler
	Prescriptions *v1.PrescriptionHandler
}

type Options struct {
	Server    config.ServerConfig
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig

	Log      *zap.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Tokens   middleware.TokenValidator

	// Ready backs /healthz. Nil means always healthy.
	Ready func(ctx context.Context) error
}

func NewRouter(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(opts.Log),
		middleware.AccessLog(opts.Log),
		middleware.Metrics(opts.Metrics),
		cors.New(corsConfig(opts.CORS)),
	)
	if opts.RateLimit.RequestsPerSecond > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit.RequestsPerSecond, opts.RateLimit.BurstSize))
	}
	if opts.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.Server.RequestTimeout))
	}

	r.GET("/healthz", healthz(opts.Ready))
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	api := r.Group("/api/v1")
	authLimit := middleware.RateLimitPerMinute(opts.RateLimit.AuthRequestsPerMinute)

	public := api.Group("", middleware.Anonymous())
	{
		public.POST("/auth/:role/login", authLimit, h.Auth.Login)
		public.POST("/auth/refresh", authLimit, h.Auth.Refresh)
		public.POST("/patients", h.Patients.Register)
		public.GET("/doctors", h.Doctors.List)
		public.GET("/doctors/search", h.Doctors.Search)
		public.GET("/doctors/:id", h.Doctors.Get)
	}

	authed := api.Group("", middleware.Authenticate(opts.Tokens))
	{
		authed.GET("/doctors/:id/availability", h.Doctors.Availability)
		authed.GET("/appointments/:id", h.Appointments.Get)
		authed.GET("/prescriptions/:appointmentId", h.Prescriptions.GetByAppointment)
	}

	admin := authed.Group("", middleware.RequireRole(domain.RoleAdmin))
	{
		admin.POST("/doctors", h.Doctors.Create)
		admin.PUT("/doctors/:id", h.Doctors.Update)
		admin.DELETE("/doctors/:id", h.Doctors.Delete)
	}

	patients := authed.Group("", middleware.RequireRole(domain.RolePatient))
	{
		patients.GET("/patients/me", h.Patients.Me)
		patients.GET("/patients/me/appointments", h.Appointments.ListForPatient)
		patients.POST("/appointments", h.Appointments.Book)
		patients.PUT("/appointments/:id", h.Appointments.Update)
		patients.DELETE("/appointments/:id", h.Appointments.Cancel)
	}

	doctors := authed.Group("", middleware.RequireRole(domain.RoleDoctor))
	{
		doctors.GET("/appointments", h.Appointments.ListForDoctor)
		doctors.POST("/prescriptions", h.Prescriptions.Create)
	}

	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	cfg := cors.Config{
		AllowMethods:  c.AllowedMethods,
		AllowHeaders:  c.AllowedHeaders,
		ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:        c.MaxAge,
	}
	if len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = c.AllowedOrigins
	}
	return cfg
}

func healthz(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
