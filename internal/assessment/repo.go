package assessment

import "context"

// Store is the persistence contract consumed by the engines and by the
// content/account services. Implementations must make CreateResult an
// atomic create-if-absent on (LearnerID, Phase).
type Store interface {
	FindResult(ctx context.Context, learnerID string, phase Phase) (TestResult, error) // ErrNotFound when absent
	CreateResult(ctx context.Context, r TestResult) (TestResult, error)                // ErrConflict when present
	// ListResults returns all results when phase is "".
	ListResults(ctx context.Context, phase Phase) ([]TestResult, error)
	DeleteResults(ctx context.Context, learnerID string) (int, error)

	ListQuestions(ctx context.Context, phase Phase) ([]Question, error) // position ascending
	// AppendQuestion ignores q.Position and assigns the next one in q.Phase.
	AppendQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error

	ListMaterials(ctx context.Context) ([]MaterialItem, error)
	AppendMaterial(ctx context.Context, m MaterialItem) (MaterialItem, error)
	DeleteMaterial(ctx context.Context, id string) error

	CreateLearner(ctx context.Context, l Learner) (Learner, error) // ErrDuplicateUsername
	GetLearner(ctx context.Context, id string) (Learner, error)
	FindLearnerByUsername(ctx context.Context, username string) (Learner, error)
	// ListLearners orders newest first.
	ListLearners(ctx context.Context, excludeAdmins bool) ([]Learner, error)
	// DeleteLearner removes the learner and all of their results.
	DeleteLearner(ctx context.Context, id string) error

	CountLearners(ctx context.Context, excludeAdmins bool) (int, error)
	CountResults(ctx context.Context, phase Phase) (int, error)
	// AverageScore is 0 when there are no results for phase.
	AverageScore(ctx context.Context, phase Phase) (float64, error)
}
