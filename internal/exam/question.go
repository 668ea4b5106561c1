package exam

import (
	"fmt"
	"strings"
)

// Kind identifies a question variant. The values double as the type tags of
// the persisted format.
type Kind string

const (
	KindShortAnswer    Kind = "Short/Long Question"
	KindMultipleChoice Kind = "MCQ"
	KindMatchColumns   Kind = "Match Columns"
)

// MaxOptions is the number of options a multiple-choice question can carry,
// labeled (a) through (d).
const MaxOptions = 4

// OptionLabels are the positional labels of multiple-choice options.
var OptionLabels = [MaxOptions]string{"a", "b", "c", "d"}

// ParseKind maps a persisted type tag to a Kind.
func ParseKind(tag string) (Kind, error) {
	switch Kind(tag) {
	case KindShortAnswer, KindMultipleChoice, KindMatchColumns:
		return Kind(tag), nil
	}
	return "", fmt.Errorf("unknown question type %q", tag)
}

// Question is the sum type over ShortAnswer, MultipleChoice and MatchColumns.
type Question interface {
	Kind() Kind
	// Prompt returns the question text; it may be empty for MatchColumns.
	Prompt() string
	// Validate checks the variant's invariants.
	Validate() error
	clone() Question
}

// ShortAnswer is a free-text question answered in writing.
type ShortAnswer struct {
	Text string `json:"text"`
}

func (q *ShortAnswer) Kind() Kind      { return KindShortAnswer }
func (q *ShortAnswer) Prompt() string  { return q.Text }
func (q *ShortAnswer) clone() Question { c := *q; return &c }

func (q *ShortAnswer) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// MultipleChoice is a question with up to four positionally labeled options.
type MultipleChoice struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func (q *MultipleChoice) Kind() Kind     { return KindMultipleChoice }
func (q *MultipleChoice) Prompt() string { return q.Text }

func (q *MultipleChoice) clone() Question {
	return &MultipleChoice{Text: q.Text, Options: append([]string(nil), q.Options...)}
}

func (q *MultipleChoice) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestion
	}
	if len(q.Options) > MaxOptions {
		return fmt.Errorf("%w: got %d", ErrTooManyOptions, len(q.Options))
	}
	return nil
}

// Labeled returns the option at index i with its label, e.g. "(a) Lahore".
// For RTL rendering the label follows the text instead.
func (q *MultipleChoice) Labeled(i int, labelAfter bool) string {
	if labelAfter {
		return fmt.Sprintf("%s (%s)", q.Options[i], OptionLabels[i])
	}
	return fmt.Sprintf("(%s) %s", OptionLabels[i], q.Options[i])
}

// MatchColumns pairs two independently sized columns. Rows beyond the shorter
// column render blank on that side.
type MatchColumns struct {
	Text    string   `json:"text"`
	ColumnA []string `json:"column_a"`
	ColumnB []string `json:"column_b"`
}

func (q *MatchColumns) Kind() Kind     { return KindMatchColumns }
func (q *MatchColumns) Prompt() string { return q.Text }

func (q *MatchColumns) clone() Question {
	return &MatchColumns{
		Text:    q.Text,
		ColumnA: append([]string(nil), q.ColumnA...),
		ColumnB: append([]string(nil), q.ColumnB...),
	}
}

func (q *MatchColumns) Validate() error {
	for _, col := range [][]string{q.ColumnA, q.ColumnB} {
		for _, cell := range col {
			if strings.Contains(cell, ColumnSeparator) {
				return fmt.Errorf("%w: %q", ErrSeparatorInCell, cell)
			}
		}
	}
	return nil
}

// Rows returns max(len(ColumnA), len(ColumnB)).
func (q *MatchColumns) Rows() int {
	if len(q.ColumnA) > len(q.ColumnB) {
		return len(q.ColumnA)
	}
	return len(q.ColumnB)
}

// Cell returns the entries of row r, blank where a column is exhausted.
func (q *MatchColumns) Cell(r int) (a, b string) {
	if r < len(q.ColumnA) {
		a = q.ColumnA[r]
	}
	if r < len(q.ColumnB) {
		b = q.ColumnB[r]
	}
	return a, b
}

// ColumnSeparator joins column entries in the persisted format.
const ColumnSeparator = "|"

// SplitLines turns a multi-line text block into trimmed, non-empty entries, the
// way column and option editors accept input.
func SplitLines(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
