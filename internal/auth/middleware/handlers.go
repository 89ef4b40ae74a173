package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/prepost/internal/assessment"
	"github.com/mind-engage/prepost/internal/rbac"
)

type tokenResponse struct {
	AccessToken string             `json:"access_token"`
	Learner     assessment.Learner `json:"learner"`
}

func (a *AuthService) issueFor(w http.ResponseWriter, status int, l assessment.Learner) {
	role := rbac.RoleLearner
	if l.IsAdmin {
		role = rbac.RoleAdmin
	}
	tok, err := a.IssueJWT(l.ID, role)
	if err != nil {
		log.Printf("[AUTH] issue token: %v", err)
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, Learner: l})
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService, accounts *assessment.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		l, err := accounts.Authenticate(r.Context(), req.Username, req.Password)
		switch {
		case errors.Is(err, assessment.ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		case err != nil:
			log.Printf("[AUTH] login %q: %v", req.Username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		a.issueFor(w, http.StatusOK, l)
	}
}

// POST /auth/register  assessment.Registration
// Self-registration always creates a learner, never an admin.
func RegisterHandler(a *AuthService, accounts *assessment.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assessment.Registration
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		l, err := accounts.Register(r.Context(), req)
		switch {
		case errors.Is(err, assessment.ErrDuplicateUsername):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case errors.Is(err, assessment.ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			log.Printf("[AUTH] register %q: %v", req.Username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		a.issueFor(w, http.StatusCreated, l)
	}
}
