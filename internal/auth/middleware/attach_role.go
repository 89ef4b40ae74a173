package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/prepost/internal/assessment"
	"github.com/mind-engage/prepost/internal/rbac"
)

// LearnerLookup is the slice of assessment.Store the middleware needs.
type LearnerLookup interface {
	GetLearner(ctx context.Context, id string) (assessment.Learner, error)
}

// AttachCaller resolves the token subject against the store. The admin
// flag always comes from the stored learner, so a removed learner or a
// demoted admin loses access even with an unexpired token.
func AttachCaller(store LearnerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if sub == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			l, err := store.GetLearner(ctx, sub)
			switch {
			case errors.Is(err, assessment.ErrNotFound):
				http.Error(w, "unknown account", http.StatusUnauthorized)
				return
			case err != nil:
				log.Printf("[AUTH] lookup %s: %v", sub, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			role := rbac.RoleLearner
			if l.IsAdmin {
				role = rbac.RoleAdmin
			}
			if claimed := ClaimedRoleFromContext(ctx); claimed != "" && claimed != role {
				log.Printf("[AUTH] %s claims role %q, stored role is %q", sub, claimed, role)
			}
			ctx = rbac.WithRole(ctx, role)
			ctx = WithCaller(ctx, assessment.Caller{LearnerID: l.ID, IsAdmin: l.IsAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
