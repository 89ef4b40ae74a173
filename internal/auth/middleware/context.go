package auth

import (
	"context"

	"github.com/mind-engage/prepost/internal/assessment"
)

type ctxKey string

const (
	ctxKeySub    ctxKey = "sub"
	ctxKeyRole   ctxKey = "claimed_role"
	ctxKeyCaller ctxKey = "caller"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithClaimedRole stores the role from the token. It is informational
// only; authorization uses the role attached from the store.
func WithClaimedRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func ClaimedRoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRole).(string)
	return s
}

func WithCaller(ctx context.Context, c assessment.Caller) context.Context {
	return context.WithValue(ctx, ctxKeyCaller, c)
}

// CallerFromContext returns the zero Caller when none was attached.
func CallerFromContext(ctx context.Context) assessment.Caller {
	c, _ := ctx.Value(ctxKeyCaller).(assessment.Caller)
	return c
}
