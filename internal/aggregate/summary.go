package aggregate

import (
	"context"

	"github.com/mind-engage/prepost/internal/assessment"
)

// CohortSummary averages are 0 when the phase has no results.
type CohortSummary struct {
	Learners    int     `json:"learners"`
	PreCount    int     `json:"pre_count"`
	PostCount   int     `json:"post_count"`
	PreAverage  float64 `json:"pre_average"`
	PostAverage float64 `json:"post_average"`
}

func (e *Engine) Summary(ctx context.Context) (CohortSummary, error) {
	var s CohortSummary
	var err error
	if s.Learners, err = e.store.CountLearners(ctx, true); err != nil {
		return CohortSummary{}, err
	}
	if s.PreCount, err = e.store.CountResults(ctx, assessment.PhasePre); err != nil {
		return CohortSummary{}, err
	}
	if s.PostCount, err = e.store.CountResults(ctx, assessment.PhasePost); err != nil {
		return CohortSummary{}, err
	}
	if s.PreAverage, err = e.store.AverageScore(ctx, assessment.PhasePre); err != nil {
		return CohortSummary{}, err
	}
	if s.PostAverage, err = e.store.AverageScore(ctx, assessment.PhasePost); err != nil {
		return CohortSummary{}, err
	}
	return s, nil
}
