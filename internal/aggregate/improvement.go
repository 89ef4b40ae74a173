package aggregate

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/prepost/internal/assessment"
)

type Class string

const (
	Improved    Class = "improved"
	NotImproved Class = "not_improved" // includes exact ties
	Incomplete  Class = "incomplete"
)

type Improvement struct {
	Class Class    `json:"class"`
	Delta *float64 `json:"delta,omitempty"` // nil unless both results exist
}

// Classify compares a learner's post score with their pre score.
func Classify(pre, post *assessment.TestResult) Improvement {
	if pre == nil || post == nil {
		return Improvement{Class: Incomplete}
	}
	d := post.Score - pre.Score
	c := NotImproved
	if d > 0 {
		c = Improved
	}
	return Improvement{Class: c, Delta: &d}
}

// FormatScore renders v with one decimal place. Rounding is half to even on
// the exact binary value, so 6.25 gives "6.2" and 0.35 (stored as
// 0.34999...) gives "0.3".
func FormatScore(v float64) string {
	return decimal.NewFromFloatWithExponent(v, math.MinInt32).RoundBank(1).StringFixed(1)
}
