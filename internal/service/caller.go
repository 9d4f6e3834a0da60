package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

// Caller describes who issued the current request. The HTTP layer attaches it
// to the context; services read it for audit entries only, never for
// authorization decisions that take an explicit identity.
type Caller struct {
	Identity  domain.Identity
	IP        string
	RequestID string
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
