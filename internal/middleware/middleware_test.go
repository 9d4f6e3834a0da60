package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]domain.Identity

func (s stubTokens) ValidateAccessToken(token string) (*domain.Identity, error) {
	if token == "expired" {
		return nil, auth.ErrTokenExpired
	}
	id, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &id, nil
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	patientID := uuid.New()
	tokens := stubTokens{
		"patient-token": {SubjectID: patientID, Role: domain.RolePatient},
		"doctor-token":  {SubjectID: uuid.New(), Role: domain.RoleDoctor},
	}

	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", Authenticate(tokens), RequireRole(domain.RolePatient), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		caller := service.CallerFrom(c.Request.Context())
		if caller.Identity != id || caller.RequestID == "" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.SubjectID.String())
	})

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"expired", "Bearer expired", http.StatusUnauthorized},
		{"wrong role", "Bearer doctor-token", http.StatusForbidden},
		{"ok", "Bearer patient-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.auth != "" {
				h.Set("Authorization", tt.auth)
			}
			rec := serve(r, http.MethodGet, "/me", h)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusOK && rec.Body.String() != patientID.String() {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: []string{"abc-123"}})
	if rec.Body.String() != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("incoming id not propagated: body=%q header=%q", rec.Body.String(), rec.Header().Get(RequestIDHeader))
	}

	rec = serve(r, http.MethodGet, "/", nil)
	if _, err := uuid.Parse(rec.Body.String()); err != nil {
		t.Errorf("generated id is not a uuid: %q", rec.Body.String())
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(1, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if rec := serve(r, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d within burst: status %d", i+1, rec.Code)
		}
	}

	rec := serve(r, http.MethodGet, "/", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestLimiterStore_EvictsIdle(t *testing.T) {
	s := newLimiterStore(1, 1)
	start := time.Now()
	s.get("10.0.0.1", start)
	s.get("10.0.0.2", start.Add(limiterIdleTTL))

	s.get("10.0.0.2", start.Add(2*limiterIdleTTL+time.Second))
	if _, ok := s.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor was not evicted")
	}
	if _, ok := s.visitors["10.0.0.2"]; !ok {
		t.Error("active visitor was evicted")
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.NewNop()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/doctors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/doctors/"+uuid.NewString(), nil)
	serve(r, http.MethodGet, "/doctors/"+uuid.NewString(), nil)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/doctors/:id", "200"))
	if got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	if rec := serve(r, http.MethodGet, "/", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Second))
	r.GET("/", func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	if rec := serve(r, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Errorf("request context had no deadline")
	}
}
