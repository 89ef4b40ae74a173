package assessment_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/prepost/internal/assessment"
	"github.com/mind-engage/prepost/internal/db"
)

func openSQLite(t *testing.T) (*sql.DB, *assessment.SQLStore) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, assessment.NewSQLStore(h, string(db.DriverSQLite))
}

// forEachStore runs fn against the in-memory store and a sqlite-backed SQLStore.
func forEachStore(t *testing.T, fn func(t *testing.T, st assessment.Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, assessment.NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) {
		_, st := openSQLite(t)
		fn(t, st)
	})
}

func mustLearner(t *testing.T, st assessment.Store, name, username string) assessment.Learner {
	t.Helper()
	l, err := st.CreateLearner(context.Background(), assessment.Learner{Name: name, Username: username, PasswordHash: "x"})
	require.NoError(t, err)
	return l
}

// mustQuestions appends one question per answer label to phase.
func mustQuestions(t *testing.T, st assessment.Store, phase assessment.Phase, answers ...string) []assessment.Question {
	t.Helper()
	c := assessment.NewContent(st)
	out := make([]assessment.Question, 0, len(answers))
	for i, a := range answers {
		q, err := c.AddQuestion(context.Background(), assessment.Question{
			Phase:   phase,
			Prompt:  fmt.Sprintf("%s question %d", phase, i+1),
			Choices: assessment.Choices{A: "one", B: "two", C: "three", D: "four"},
			Answer:  a,
		})
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}
