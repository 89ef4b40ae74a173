package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mind-engage/prepost/internal/grading"
)

// Eligibility is the outcome of CanStart.
type Eligibility string

const (
	Allowed             Eligibility = "allowed"
	AlreadyCompleted    Eligibility = "already_completed"
	PrerequisiteMissing Eligibility = "prerequisite_missing"
)

// Err maps a non-Allowed eligibility to its sentinel error.
func (e Eligibility) Err() error {
	switch e {
	case AlreadyCompleted:
		return ErrAlreadyCompleted
	case PrerequisiteMissing:
		return ErrPrerequisiteMissing
	}
	return nil
}

// Engine decides who may take which test, scores submissions and stores
// exactly one result per (learner, phase). It holds no mutable state.
type Engine struct {
	store  Store
	grader grading.Grader
}

func NewEngine(store Store, grader grading.Grader) *Engine {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	return &Engine{store: store, grader: grader}
}

// CanStart is read-only.
func (e *Engine) CanStart(ctx context.Context, c Caller, phase Phase) (Eligibility, error) {
	if c.LearnerID == "" {
		return "", ErrForbidden
	}
	if phase == PhasePost {
		has, err := e.hasResult(ctx, c.LearnerID, PhasePre)
		if err != nil {
			return "", err
		}
		if !has {
			return PrerequisiteMissing, nil
		}
	}
	has, err := e.hasResult(ctx, c.LearnerID, phase)
	if err != nil {
		return "", err
	}
	if has {
		return AlreadyCompleted, nil
	}
	return Allowed, nil
}

func (e *Engine) hasResult(ctx context.Context, learnerID string, phase Phase) (bool, error) {
	_, err := e.store.FindResult(ctx, learnerID, phase)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("find %s result: %w", phase, err)
	}
}

// Questions returns the phase's question set ordered by position.
func (e *Engine) Questions(ctx context.Context, phase Phase) ([]Question, error) {
	qs, err := e.store.ListQuestions(ctx, phase)
	if err != nil {
		return nil, fmt.Errorf("list %s questions: %w", phase, err)
	}
	return qs, nil
}

// Submit scores answers against the phase's current question set and
// stores the result. Any ineligibility, including losing a concurrent
// race for the same (learner, phase), is reported as ErrAttemptConflict
// wrapping the specific cause.
func (e *Engine) Submit(ctx context.Context, c Caller, phase Phase, answers Answers) (TestResult, error) {
	el, err := e.CanStart(ctx, c, phase)
	if err != nil {
		return TestResult{}, err
	}
	if el != Allowed {
		return TestResult{}, fmt.Errorf("%w: %w", ErrAttemptConflict, el.Err())
	}

	qs, err := e.Questions(ctx, phase)
	if err != nil {
		return TestResult{}, err
	}
	if len(qs) == 0 {
		log.Printf("[WARN] empty question set for phase %s; learner %s scored 0/0", phase, c.LearnerID)
	}

	items := make([]grading.Item, len(qs))
	for i, q := range qs {
		items[i] = grading.Item{ID: q.ID, Answer: q.Answer}
	}
	tally := e.grader.Grade(items, answers)

	r, err := e.store.CreateResult(ctx, TestResult{
		LearnerID: c.LearnerID,
		Phase:     phase,
		Score:     tally.Score,
		Correct:   tally.Correct,
		Total:     tally.Total,
		Answers:   Answers(tally.Answers),
	})
	if errors.Is(err, ErrConflict) {
		return TestResult{}, fmt.Errorf("%w: %w", ErrAttemptConflict, ErrAlreadyCompleted)
	}
	if err != nil {
		return TestResult{}, fmt.Errorf("create %s result: %w", phase, err)
	}
	return r, nil
}

// ReviewItem is one row of the per-question breakdown.
type ReviewItem struct {
	Question Question `json:"question"`
	Chosen   string   `json:"chosen"`
	Correct  bool     `json:"correct"`
}

type Review struct {
	Result TestResult   `json:"result"`
	Items  []ReviewItem `json:"items"`
}

// Review returns the caller's stored result together with the phase's
// current questions and the recorded answers.
func (e *Engine) Review(ctx context.Context, c Caller, phase Phase) (Review, error) {
	if c.LearnerID == "" {
		return Review{}, ErrForbidden
	}
	r, err := e.store.FindResult(ctx, c.LearnerID, phase)
	if err != nil {
		return Review{}, err
	}
	qs, err := e.Questions(ctx, phase)
	if err != nil {
		return Review{}, err
	}
	items := make([]ReviewItem, len(qs))
	for i, q := range qs {
		chosen := r.Answers[q.ID]
		items[i] = ReviewItem{Question: q, Chosen: chosen, Correct: chosen != "" && chosen == q.Answer}
	}
	return Review{Result: r, Items: items}, nil
}

// Dashboard is a learner's view of both phases.
type Dashboard struct {
	Learner     Learner               `json:"learner"`
	Results     map[Phase]*TestResult `json:"results"`
	Eligibility map[Phase]Eligibility `json:"eligibility"`
}

func (e *Engine) Dashboard(ctx context.Context, c Caller) (Dashboard, error) {
	l, err := e.store.GetLearner(ctx, c.LearnerID)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Learner: l, Results: map[Phase]*TestResult{}, Eligibility: map[Phase]Eligibility{}}
	for _, p := range Phases {
		r, err := e.store.FindResult(ctx, c.LearnerID, p)
		switch {
		case err == nil:
			d.Results[p] = &r
		case !errors.Is(err, ErrNotFound):
			return Dashboard{}, err
		}
		el, err := e.CanStart(ctx, c, p)
		if err != nil {
			return Dashboard{}, err
		}
		d.Eligibility[p] = el
	}
	return d, nil
}

// Materials returns learning material in position order. Learners see it
// only after finishing the pre-test; admins always do.
func (e *Engine) Materials(ctx context.Context, c Caller) ([]MaterialItem, error) {
	if !c.IsAdmin {
		if c.LearnerID == "" {
			return nil, ErrForbidden
		}
		has, err := e.hasResult(ctx, c.LearnerID, PhasePre)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, ErrPrerequisiteMissing
		}
	}
	return e.store.ListMaterials(ctx)
}
