package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.Has(RoleLearner, "test:take"))
	assert.False(t, c.Has(RoleLearner, "results:export"))
	assert.True(t, c.Has(RoleAdmin, "results:export"))
	assert.True(t, c.Any(RoleLearner, "results:view-all", "result:view-own"))
	assert.False(t, c.All(RoleLearner, "test:take", "content:manage"))
	assert.False(t, c.Has("", "test:take"))
	assert.False(t, c.Has("guest", "test:take"))
}

func TestCheckerWildcardSuffix(t *testing.T) {
	c := NewChecker(map[string][]string{"editor": {"content:*"}})
	assert.True(t, c.Has("editor", "content:manage"))
	assert.False(t, c.Has("editor", "learners:manage"))
}

func TestRequire(t *testing.T) {
	h := Require("content:manage")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	tests := []struct {
		role string
		want int
	}{
		{"", http.StatusForbidden},
		{RoleLearner, http.StatusForbidden},
		{RoleAdmin, http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRole(context.Background(), tt.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "role %q", tt.role)
	}
}

func TestRequireAnyAndAll(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	anyH := RequireAny("material:view", "content:manage")(ok)
	allH := RequireAll("content:manage", "assets:write")(ok)
	tests := []struct {
		role    string
		wantAny int
		wantAll int
	}{
		{"", http.StatusForbidden, http.StatusForbidden},
		{RoleLearner, http.StatusNoContent, http.StatusForbidden},
		{RoleAdmin, http.StatusNoContent, http.StatusNoContent},
	}
	for _, tt := range tests {
		for _, c := range []struct {
			h    http.Handler
			want int
		}{{anyH, tt.wantAny}, {allH, tt.wantAll}} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithRole(context.Background(), tt.role))
			rec := httptest.NewRecorder()
			c.h.ServeHTTP(rec, req)
			assert.Equal(t, c.want, rec.Code, "role %q", tt.role)
		}
	}
}
