package aggregate

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/mind-engage/prepost/internal/assessment"
)

const ContentType = "text/csv; charset=utf-8"

// Locale holds the fixed CSV header and the tokens used in export rows.
type Locale struct {
	Header      []string
	Yes         string
	No          string
	Placeholder string
	Filename    string
}

var Locales = map[string]Locale{
	"en": {
		Header:      []string{"Name", "Username", "Classroom", "Roster No.", "Pre-Test Score", "Post-Test Score", "Difference", "Improved"},
		Yes:         "Yes",
		No:          "No",
		Placeholder: "-",
		Filename:    "prepost_results.csv",
	},
	"id": {
		Header:      []string{"Nama", "Username", "Kelas", "No. Absen", "Nilai Pre-Test", "Nilai Post-Test", "Selisih", "Peningkatan"},
		Yes:         "Ya",
		No:          "Tidak",
		Placeholder: "-",
		Filename:    "hasil_prepost_test.csv",
	},
}

// LocaleFor falls back to "en" for unknown tags.
func LocaleFor(tag string) Locale {
	if l, ok := Locales[tag]; ok {
		return l
	}
	return Locales["en"]
}

// Row renders one pair as export columns.
func (loc Locale) Row(p Pair) []string {
	or := func(s string) string {
		if s == "" {
			return loc.Placeholder
		}
		return s
	}
	score := func(r *assessment.TestResult) string {
		if r == nil {
			return loc.Placeholder
		}
		return FormatScore(r.Score)
	}
	imp := p.Improvement()
	delta, verdict := loc.Placeholder, loc.Placeholder
	if imp.Delta != nil {
		delta = FormatScore(*imp.Delta)
		verdict = loc.No
		if imp.Class == Improved {
			verdict = loc.Yes
		}
	}
	return []string{
		p.Learner.Name,
		p.Learner.Username,
		or(p.Learner.Classroom),
		or(p.Learner.RosterNo),
		score(p.Pre),
		score(p.Post),
		delta,
		verdict,
	}
}

// WriteCSV writes the header followed by one row per pair, in order.
func (loc Locale) WriteCSV(w io.Writer, pairs []Pair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(loc.Header); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := cw.Write(loc.Row(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes the CSV for the current pairing.
func (e *Engine) Export(ctx context.Context, w io.Writer, loc Locale) error {
	pairs, err := e.Pairs(ctx)
	if err != nil {
		return err
	}
	return loc.WriteCSV(w, pairs)
}
