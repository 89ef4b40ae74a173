package assessment

import (
	"context"
	"fmt"
	"strings"
)

// Content manages the question bank and learning material. Items are
// always appended; the store assigns the next position.
type Content struct {
	store Store
}

func NewContent(store Store) *Content { return &Content{store: store} }

func (c *Content) AddQuestion(ctx context.Context, q Question) (Question, error) {
	if _, err := ParsePhase(string(q.Phase)); err != nil {
		return Question{}, err
	}
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Prompt == "" {
		return Question{}, fmt.Errorf("%w: prompt required", ErrInvalid)
	}
	for _, ch := range []string{q.Choices.A, q.Choices.B, q.Choices.C, q.Choices.D} {
		if strings.TrimSpace(ch) == "" {
			return Question{}, fmt.Errorf("%w: all four choices required", ErrInvalid)
		}
	}
	if !ValidLabel(q.Answer) {
		return Question{}, fmt.Errorf("%w: answer must be one of a, b, c, d", ErrInvalid)
	}
	q.ID = ""
	return c.store.AppendQuestion(ctx, q)
}

func (c *Content) RemoveQuestion(ctx context.Context, id string) error {
	return c.store.DeleteQuestion(ctx, id)
}

// QuestionBank returns both phases, each ordered by position.
func (c *Content) QuestionBank(ctx context.Context) (map[Phase][]Question, error) {
	out := make(map[Phase][]Question, len(Phases))
	for _, p := range Phases {
		qs, err := c.store.ListQuestions(ctx, p)
		if err != nil {
			return nil, err
		}
		out[p] = qs
	}
	return out, nil
}

func (c *Content) AddMaterial(ctx context.Context, m MaterialItem) (MaterialItem, error) {
	if _, err := ParseMaterialType(string(m.Type)); err != nil {
		return MaterialItem{}, err
	}
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" || strings.TrimSpace(m.Content) == "" {
		return MaterialItem{}, fmt.Errorf("%w: title and content required", ErrInvalid)
	}
	m.ID = ""
	return c.store.AppendMaterial(ctx, m)
}

func (c *Content) RemoveMaterial(ctx context.Context, id string) error {
	return c.store.DeleteMaterial(ctx, id)
}

func (c *Content) Materials(ctx context.Context) ([]MaterialItem, error) {
	return c.store.ListMaterials(ctx)
}
