package aggregate

import (
	"context"
	"sort"

	"github.com/mind-engage/prepost/internal/assessment"
)

// Engine derives cohort statistics and per-learner comparisons from the
// stored result set. It never writes.
type Engine struct {
	store assessment.Store
}

func New(store assessment.Store) *Engine { return &Engine{store: store} }

// Pair is one learner's pre and post result; either may be nil.
type Pair struct {
	Learner assessment.Learner     `json:"learner"`
	Pre     *assessment.TestResult `json:"pre,omitempty"`
	Post    *assessment.TestResult `json:"post,omitempty"`
}

func (p Pair) Improvement() Improvement { return Classify(p.Pre, p.Post) }

// Pairs returns one entry per non-admin learner ordered by display name,
// then username, then ID.
func (e *Engine) Pairs(ctx context.Context) ([]Pair, error) {
	learners, err := e.store.ListLearners(ctx, true)
	if err != nil {
		return nil, err
	}
	results, err := e.store.ListResults(ctx, "")
	if err != nil {
		return nil, err
	}
	return BuildPairs(learners, results), nil
}

// BuildPairs joins results onto learners. Admins and results whose
// learner is not in the list are skipped.
func BuildPairs(learners []assessment.Learner, results []assessment.TestResult) []Pair {
	idx := make(map[string]int, len(learners))
	out := make([]Pair, 0, len(learners))
	for _, l := range learners {
		if l.IsAdmin {
			continue
		}
		if _, dup := idx[l.ID]; dup {
			continue
		}
		idx[l.ID] = len(out)
		out = append(out, Pair{Learner: l})
	}
	for i := range results {
		r := results[i]
		j, ok := idx[r.LearnerID]
		if !ok {
			continue
		}
		switch r.Phase {
		case assessment.PhasePre:
			out[j].Pre = &r
		case assessment.PhasePost:
			out[j].Post = &r
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		la, lb := out[a].Learner, out[b].Learner
		if la.Name != lb.Name {
			return la.Name < lb.Name
		}
		if la.Username != lb.Username {
			return la.Username < lb.Username
		}
		return la.ID < lb.ID
	})
	return out
}
