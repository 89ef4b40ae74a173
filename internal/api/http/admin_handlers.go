package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/prepost/internal/aggregate"
	"github.com/mind-engage/prepost/internal/assessment"
	syncx "github.com/mind-engage/prepost/internal/sync"
)

// EventLister pages through the audit log. Only the SQL store has one.
type EventLister interface {
	List(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /admin/summary
func SummaryHandler(agg *aggregate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := agg.Summary(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

type resultRow struct {
	aggregate.Pair
	Improvement aggregate.Improvement `json:"improvement"`
	Display     []string              `json:"display"` // same columns as the CSV export
}

// GET /admin/results?locale=
func ResultsHandler(agg *aggregate.Engine, defaultLocale string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc := localeFrom(r, defaultLocale)
		pairs, err := agg.Pairs(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		rows := make([]resultRow, len(pairs))
		for i, p := range pairs {
			rows[i] = resultRow{Pair: p, Improvement: p.Improvement(), Display: loc.Row(p)}
		}
		respondJSON(w, http.StatusOK, map[string]any{"columns": loc.Header, "rows": rows})
	}
}

// GET /admin/export?locale=
func ExportHandler(agg *aggregate.Engine, defaultLocale string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc := localeFrom(r, defaultLocale)
		pairs, err := agg.Pairs(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", aggregate.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", loc.Filename))
		if err := loc.WriteCSV(w, pairs); err != nil {
			log.Printf("[HTTP] export interrupted: %v", err)
		}
	}
}

func localeFrom(r *http.Request, def string) aggregate.Locale {
	if tag := r.URL.Query().Get("locale"); tag != "" {
		return aggregate.LocaleFor(tag)
	}
	return aggregate.LocaleFor(def)
}

// GET /admin/questions
func ListQuestionsHandler(c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank, err := c.QuestionBank(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, bank)
	}
}

// POST /admin/questions  assessment.Question (id and position are assigned)
func CreateQuestionHandler(c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q assessment.Question
		if err := decodeJSON(w, r, &q); err != nil {
			respondError(w, r, err)
			return
		}
		out, err := c.AddQuestion(r.Context(), q)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, out)
	}
}

// DELETE /admin/questions/{id}
func DeleteQuestionHandler(c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.RemoveQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/materials
func ListMaterialsHandler(c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := c.Materials(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, ms)
	}
}

// POST /admin/materials  assessment.MaterialItem
func CreateMaterialHandler(c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m assessment.MaterialItem
		if err := decodeJSON(w, r, &m); err != nil {
			respondError(w, r, err)
			return
		}
		out, err := c.AddMaterial(r.Context(), m)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, out)
	}
}

// DELETE /admin/materials/{id}
func DeleteMaterialHandler(c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.RemoveMaterial(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/learners
func ListLearnersHandler(a *assessment.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roster, err := a.Roster(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, roster)
	}
}

// POST /admin/learners/{id}/reset
func ResetLearnerHandler(a *assessment.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := a.Reset(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"deleted_results": n})
	}
}

// DELETE /admin/learners/{id}
func DeleteLearnerHandler(a *assessment.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/events?after=<seq>&limit=<n>
func EventsHandler(events EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var after int64
		var limit int
		var err error
		if v := q.Get("after"); v != "" {
			if after, err = strconv.ParseInt(v, 10, 64); err != nil {
				respondError(w, r, fmt.Errorf("%w: after must be an integer", assessment.ErrInvalid))
				return
			}
		}
		if v := q.Get("limit"); v != "" {
			if limit, err = strconv.Atoi(v); err != nil {
				respondError(w, r, fmt.Errorf("%w: limit must be an integer", assessment.ErrInvalid))
				return
			}
		}
		evs, err := events.List(r.Context(), after, limit)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
