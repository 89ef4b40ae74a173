package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	syncx "github.com/mind-engage/prepost/internal/sync"
)

// appendRetries bounds how often a position append is retried after
// losing a race on UNIQUE(position).
const appendRetries = 3

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Driver() string { return s.driver }

const resultCols = `id,learner_id,phase,score,correct,total,answers_json,submitted_at`

func (s *SQLStore) FindResult(ctx context.Context, learnerID string, phase Phase) (TestResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultCols+` FROM test_results WHERE learner_id=$1 AND phase=$2`, learnerID, phase)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TestResult{}, ErrNotFound
	}
	return r, err
}

// CreateResult relies on UNIQUE(learner_id, phase): a concurrent second
// insert affects zero rows and is reported as ErrConflict.
func (s *SQLStore) CreateResult(ctx context.Context, r TestResult) (TestResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	r.SubmittedAt = r.SubmittedAt.Truncate(time.Second)
	if r.Answers == nil {
		r.Answers = Answers{}
	}
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return TestResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TestResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO test_results (`+resultCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (learner_id, phase) DO NOTHING`,
		r.ID, r.LearnerID, r.Phase, r.Score, r.Correct, r.Total, string(aj), r.SubmittedAt.Unix())
	if err != nil {
		if isForeignKeyViolation(err) {
			return TestResult{}, fmt.Errorf("learner %s: %w", r.LearnerID, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return TestResult{}, ErrConflict
		}
		return TestResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return TestResult{}, err
	}
	if n == 0 {
		return TestResult{}, ErrConflict
	}
	ev := syncx.NewEvent(syncx.TypeResultSubmitted, r.ID, map[string]any{
		"learner_id": r.LearnerID, "phase": r.Phase, "score": r.Score,
		"correct": r.Correct, "total": r.Total,
	})
	if err := syncx.Append(ctx, tx, ev); err != nil {
		return TestResult{}, fmt.Errorf("event log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return TestResult{}, err
	}
	return r, nil
}

func (s *SQLStore) ListResults(ctx context.Context, phase Phase) ([]TestResult, error) {
	var rows *sql.Rows
	var err error
	if phase == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+resultCols+` FROM test_results ORDER BY submitted_at, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+resultCols+` FROM test_results WHERE phase=$1 ORDER BY submitted_at, id`, phase)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteResults(ctx context.Context, learnerID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx, `DELETE FROM test_results WHERE learner_id=$1`, learnerID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	ev := syncx.NewEvent(syncx.TypeLearnerReset, learnerID, map[string]any{"deleted": n})
	if err := syncx.Append(ctx, tx, ev); err != nil {
		return 0, fmt.Errorf("event log: %w", err)
	}
	return int(n), tx.Commit()
}

const questionCols = `id,phase,prompt,choice_a,choice_b,choice_c,choice_d,answer,position`

func (s *SQLStore) ListQuestions(ctx context.Context, phase Phase) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE phase=$1 ORDER BY position`, phase)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Phase, &q.Prompt, &q.Choices.A, &q.Choices.B,
			&q.Choices.C, &q.Choices.D, &q.Answer, &q.Position); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendQuestion(ctx context.Context, q Question) (Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	err := s.appendWithRetry(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position),0)+1 FROM questions WHERE phase=$1`, q.Phase).Scan(&q.Position); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO questions (`+questionCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			q.ID, q.Phase, q.Prompt, q.Choices.A, q.Choices.B, q.Choices.C, q.Choices.D, q.Answer, q.Position)
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM questions WHERE id=$1`, id)
}

const materialCols = `id,title,type,content,description,position`

func (s *SQLStore) ListMaterials(ctx context.Context) ([]MaterialItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+materialCols+` FROM materials ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MaterialItem{}
	for rows.Next() {
		var m MaterialItem
		if err := rows.Scan(&m.ID, &m.Title, &m.Type, &m.Content, &m.Description, &m.Position); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendMaterial(ctx context.Context, m MaterialItem) (MaterialItem, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := s.appendWithRetry(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position),0)+1 FROM materials`).Scan(&m.Position); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO materials (`+materialCols+`) VALUES ($1,$2,$3,$4,$5,$6)`,
			m.ID, m.Title, m.Type, m.Content, m.Description, m.Position)
		return err
	})
	if err != nil {
		return MaterialItem{}, err
	}
	return m, nil
}

func (s *SQLStore) DeleteMaterial(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM materials WHERE id=$1`, id)
}

const learnerCols = `id,name,username,password_hash,classroom,roster_no,is_admin,created_at`

func (s *SQLStore) CreateLearner(ctx context.Context, l Learner) (Learner, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.CreatedAt = l.CreatedAt.Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, `INSERT INTO learners (`+learnerCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		l.ID, l.Name, l.Username, l.PasswordHash, l.Classroom, l.RosterNo, l.IsAdmin, l.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return Learner{}, ErrDuplicateUsername
		}
		return Learner{}, err
	}
	return l, nil
}

func (s *SQLStore) GetLearner(ctx context.Context, id string) (Learner, error) {
	return s.oneLearner(ctx, `SELECT `+learnerCols+` FROM learners WHERE id=$1`, id)
}

func (s *SQLStore) FindLearnerByUsername(ctx context.Context, username string) (Learner, error) {
	return s.oneLearner(ctx, `SELECT `+learnerCols+` FROM learners WHERE username=$1`, username)
}

func (s *SQLStore) ListLearners(ctx context.Context, excludeAdmins bool) ([]Learner, error) {
	q := `SELECT ` + learnerCols + ` FROM learners`
	var args []any
	if excludeAdmins {
		q += ` WHERE is_admin=$1`
		args = append(args, false)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Learner{}
	for rows.Next() {
		l, err := scanLearner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLearner deletes results explicitly so the cascade does not depend
// on the connection having foreign keys enabled.
func (s *SQLStore) DeleteLearner(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM test_results WHERE learner_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM learners WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := syncx.Append(ctx, tx, syncx.NewEvent(syncx.TypeLearnerRemoved, id, map[string]any{})); err != nil {
		return fmt.Errorf("event log: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) CountLearners(ctx context.Context, excludeAdmins bool) (int, error) {
	var n int
	var err error
	if excludeAdmins {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learners WHERE is_admin=$1`, false).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learners`).Scan(&n)
	}
	return n, err
}

func (s *SQLStore) CountResults(ctx context.Context, phase Phase) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_results WHERE phase=$1`, phase).Scan(&n)
	return n, err
}

func (s *SQLStore) AverageScore(ctx context.Context, phase Phase) (float64, error) {
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT AVG(score) FROM test_results WHERE phase=$1`, phase).Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (TestResult, error) {
	var r TestResult
	var aj string
	var ts int64
	if err := row.Scan(&r.ID, &r.LearnerID, &r.Phase, &r.Score, &r.Correct, &r.Total, &aj, &ts); err != nil {
		return TestResult{}, err
	}
	r.SubmittedAt = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(aj), &r.Answers); err != nil {
		return TestResult{}, fmt.Errorf("result %s: decode answers_json: %w", r.ID, err)
	}
	if r.Answers == nil {
		r.Answers = Answers{}
	}
	return r, nil
}

func scanLearner(row rowScanner) (Learner, error) {
	var l Learner
	var ts int64
	if err := row.Scan(&l.ID, &l.Name, &l.Username, &l.PasswordHash, &l.Classroom, &l.RosterNo, &l.IsAdmin, &ts); err != nil {
		return Learner{}, err
	}
	l.CreatedAt = time.Unix(ts, 0).UTC()
	return l, nil
}

func (s *SQLStore) oneLearner(ctx context.Context, query string, arg string) (Learner, error) {
	l, err := scanLearner(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Learner{}, ErrNotFound
	}
	return l, err
}

func (s *SQLStore) deleteByID(ctx context.Context, query, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) appendWithRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for i := 0; i < appendRetries; i++ {
		err = s.inTx(ctx, fn)
		if err == nil || !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("append: position contention: %w", err)
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqErr.Error(), "UNIQUE")
		}
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqErr.Error(), "FOREIGN KEY")
		}
	}
	return false
}
