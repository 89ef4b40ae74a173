package grading

// Item is the minimal view of a question needed for grading.
// Keep this in sync with assessment.Question.
type Item struct {
	ID     string
	Answer string // correct choice label: a|b|c|d
}

// Tally is the outcome of grading one submitted answer sheet.
type Tally struct {
	Correct int
	Total   int
	Score   float64 // 0..100, unrounded
	// Answers holds one entry per graded item; unanswered items map to "".
	Answers map[string]string
}

// Strategy decides whether a single response is correct.
type Strategy interface {
	Correct(item Item, response string) bool
}

// Grader scores a full answer sheet against an ordered item set.
type Grader interface {
	Grade(items []Item, responses map[string]string) Tally
}

type defaultGrader struct {
	strategy Strategy
}

// NewDefaultGrader grades single-choice items by exact label match.
func NewDefaultGrader() Grader {
	return &defaultGrader{strategy: exactLabel{}}
}

// Grade walks items in order. Responses for IDs outside the item set are
// dropped; a missing response is recorded as "" and counts as incorrect.
func (g *defaultGrader) Grade(items []Item, responses map[string]string) Tally {
	t := Tally{Total: len(items), Answers: make(map[string]string, len(items))}
	for _, it := range items {
		resp := responses[it.ID]
		t.Answers[it.ID] = resp
		if g.strategy.Correct(it, resp) {
			t.Correct++
		}
	}
	if t.Total > 0 {
		t.Score = float64(t.Correct) / float64(t.Total) * 100
	}
	return t
}

// exactLabel is case-sensitive: "A" never matches "a".
type exactLabel struct{}

func (exactLabel) Correct(item Item, response string) bool {
	return response != "" && response == item.Answer
}
