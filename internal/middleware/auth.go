package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

type TokenValidator interface {
	ValidateAccessToken(token string) (*domain.Identity, error)
}

// Authenticate resolves the bearer token into an identity and attaches it to
// both the gin context and the request context.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		id, err := tokens.ValidateAccessToken(strings.TrimSpace(raw))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(identityKey, *id)
		ctx := service.WithCaller(c.Request.Context(), service.Caller{
			Identity:  *id,
			IP:        c.ClientIP(),
			RequestID: GetRequestID(c),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !slices.Contains(roles, id.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

// Anonymous attaches a caller without identity so audit entries for public
// routes still carry IP and request id.
func Anonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.WithCaller(c.Request.Context(), service.Caller{
			IP:        c.ClientIP(),
			RequestID: GetRequestID(c),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
