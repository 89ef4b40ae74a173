package assessment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu        sync.RWMutex
	learners  map[string]Learner
	order     map[string]int // learner ID -> insertion sequence
	seq       int
	questions map[string]Question
	materials map[string]MaterialItem
	results   map[resultKey]TestResult
}

type resultKey struct {
	learnerID string
	phase     Phase
}

// NewInMemoryStore returns a process-local Store. It honours the same
// uniqueness rules as the SQL store but keeps no event log.
func NewInMemoryStore() Store {
	return &memoryStore{
		learners:  map[string]Learner{},
		order:     map[string]int{},
		questions: map[string]Question{},
		materials: map[string]MaterialItem{},
		results:   map[resultKey]TestResult{},
	}
}

func (m *memoryStore) FindResult(_ context.Context, learnerID string, phase Phase) (TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[resultKey{learnerID, phase}]
	if !ok {
		return TestResult{}, ErrNotFound
	}
	return copyResult(r), nil
}

func (m *memoryStore) CreateResult(_ context.Context, r TestResult) (TestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := resultKey{r.LearnerID, r.Phase}
	if _, ok := m.results[k]; ok {
		return TestResult{}, ErrConflict
	}
	if _, ok := m.learners[r.LearnerID]; !ok {
		return TestResult{}, ErrNotFound
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	r = copyResult(r)
	m.results[k] = r
	return copyResult(r), nil
}

func (m *memoryStore) ListResults(_ context.Context, phase Phase) ([]TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestResult{}
	for _, r := range m.results {
		if phase == "" || r.Phase == phase {
			out = append(out, copyResult(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) DeleteResults(_ context.Context, learnerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteResultsLocked(learnerID), nil
}

func (m *memoryStore) deleteResultsLocked(learnerID string) int {
	n := 0
	for _, p := range Phases {
		k := resultKey{learnerID, p}
		if _, ok := m.results[k]; ok {
			delete(m.results, k)
			n++
		}
	}
	return n
}

func (m *memoryStore) ListQuestions(_ context.Context, phase Phase) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions {
		if q.Phase == phase {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memoryStore) AppendQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 1
	for _, e := range m.questions {
		if e.Phase == q.Phase && e.Position >= next {
			next = e.Position + 1
		}
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Position = next
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) ListMaterials(_ context.Context) ([]MaterialItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MaterialItem, 0, len(m.materials))
	for _, it := range m.materials {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memoryStore) AppendMaterial(_ context.Context, it MaterialItem) (MaterialItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 1
	for _, e := range m.materials {
		if e.Position >= next {
			next = e.Position + 1
		}
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Position = next
	m.materials[it.ID] = it
	return it, nil
}

func (m *memoryStore) DeleteMaterial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.materials[id]; !ok {
		return ErrNotFound
	}
	delete(m.materials, id)
	return nil
}

func (m *memoryStore) CreateLearner(_ context.Context, l Learner) (Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.learners {
		if e.Username == l.Username {
			return Learner{}, ErrDuplicateUsername
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.seq++
	m.order[l.ID] = m.seq
	m.learners[l.ID] = l
	return l, nil
}

func (m *memoryStore) GetLearner(_ context.Context, id string) (Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.learners[id]
	if !ok {
		return Learner{}, ErrNotFound
	}
	return l, nil
}

func (m *memoryStore) FindLearnerByUsername(_ context.Context, username string) (Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.learners {
		if l.Username == username {
			return l, nil
		}
	}
	return Learner{}, ErrNotFound
}

func (m *memoryStore) ListLearners(_ context.Context, excludeAdmins bool) ([]Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Learner{}
	for _, l := range m.learners {
		if excludeAdmins && l.IsAdmin {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.order[out[i].ID] > m.order[out[j].ID]
	})
	return out, nil
}

func (m *memoryStore) DeleteLearner(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.learners[id]; !ok {
		return ErrNotFound
	}
	m.deleteResultsLocked(id)
	delete(m.learners, id)
	delete(m.order, id)
	return nil
}

func (m *memoryStore) CountLearners(_ context.Context, excludeAdmins bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.learners {
		if !excludeAdmins || !l.IsAdmin {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CountResults(_ context.Context, phase Phase) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.results {
		if k.phase == phase {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) AverageScore(_ context.Context, phase Phase) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum, n := 0.0, 0
	for k, r := range m.results {
		if k.phase == phase {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func copyResult(r TestResult) TestResult {
	if r.Answers != nil {
		a := make(Answers, len(r.Answers))
		for k, v := range r.Answers {
			a[k] = v
		}
		r.Answers = a
	}
	return r
}
