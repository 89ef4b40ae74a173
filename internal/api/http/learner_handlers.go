package http

import (
	"net/http"

	"github.com/mind-engage/prepost/internal/assessment"
	auth "github.com/mind-engage/prepost/internal/auth/middleware"
)

// stripAnswers hides the answer key from learner-facing payloads.
func stripAnswers(qs []assessment.Question) []assessment.Question {
	out := make([]assessment.Question, len(qs))
	for i, q := range qs {
		q.Answer = ""
		out[i] = q
	}
	return out
}

// GET /me/dashboard
func DashboardHandler(eng *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := eng.Dashboard(r.Context(), auth.CallerFromContext(r.Context()))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}

// GET /tests/{phase}/eligibility
func EligibilityHandler(eng *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		el, err := eng.CanStart(r.Context(), auth.CallerFromContext(r.Context()), phase)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"phase": phase, "eligibility": el})
	}
}

// GET /tests/{phase}
// Only served while the caller may still take the test.
func TestQuestionsHandler(eng *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		phase, err := phaseParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		el, err := eng.CanStart(ctx, auth.CallerFromContext(ctx), phase)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if el != assessment.Allowed {
			respondError(w, r, el.Err())
			return
		}
		qs, err := eng.Questions(ctx, phase)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"phase": phase, "questions": stripAnswers(qs)})
	}
}

// POST /tests/{phase}/submit  {"answers": {"<question id>": "a"}}
func SubmitHandler(eng *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		var req struct {
			Answers assessment.Answers `json:"answers"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		res, err := eng.Submit(r.Context(), auth.CallerFromContext(r.Context()), phase, req.Answers)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, res)
	}
}

// GET /tests/{phase}/result
func ResultHandler(eng *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		rv, err := eng.Review(r.Context(), auth.CallerFromContext(r.Context()), phase)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, rv)
	}
}

// GET /materials
func MaterialsHandler(eng *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := eng.Materials(r.Context(), auth.CallerFromContext(r.Context()))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, ms)
	}
}
