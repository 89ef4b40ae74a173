package assessment

import (
	"fmt"
	"time"
)

// Phase is one of the two assessment stages.
type Phase string

const (
	PhasePre  Phase = "pre"
	PhasePost Phase = "post"
)

// Phases lists both stages in comparison order.
var Phases = []Phase{PhasePre, PhasePost}

func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhasePre, PhasePost:
		return Phase(s), nil
	}
	return "", fmt.Errorf("%w: unknown phase %q", ErrInvalid, s)
}

// Caller is the identity resolved once by the auth layer and passed
// explicitly into every engine operation.
type Caller struct {
	LearnerID string
	IsAdmin   bool
}

type Learner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Classroom    string    `json:"classroom,omitempty"`
	RosterNo     string    `json:"roster_no,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Choices holds the four labeled options of a question.
type Choices struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

type Question struct {
	ID       string  `json:"id"`
	Phase    Phase   `json:"phase"`
	Prompt   string  `json:"prompt"`
	Choices  Choices `json:"choices"`
	Answer   string  `json:"answer,omitempty"` // a|b|c|d; stripped when served to learners
	Position int     `json:"position"`
}

// ValidLabel reports whether l is one of a, b, c, d.
func ValidLabel(l string) bool {
	switch l {
	case "a", "b", "c", "d":
		return true
	}
	return false
}

type MaterialType string

const (
	MaterialVideo MaterialType = "video"
	MaterialText  MaterialType = "text"
	MaterialAudio MaterialType = "audio"
)

func ParseMaterialType(s string) (MaterialType, error) {
	switch MaterialType(s) {
	case MaterialVideo, MaterialText, MaterialAudio:
		return MaterialType(s), nil
	}
	return "", fmt.Errorf("%w: unknown material type %q", ErrInvalid, s)
}

type MaterialItem struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        MaterialType `json:"type"`
	Content     string       `json:"content"` // URL or rich text
	Description string       `json:"description,omitempty"`
	Position    int          `json:"position"`
}

// Answers maps question ID -> chosen label. Blank means unanswered.
type Answers map[string]string

// TestResult is immutable once stored.
type TestResult struct {
	ID          string    `json:"id"`
	LearnerID   string    `json:"learner_id"`
	Phase       Phase     `json:"phase"`
	Score       float64   `json:"score"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Answers     Answers   `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"`
}
