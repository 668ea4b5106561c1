// Package exam holds the in-memory exam paper document: header metadata, graded
// sections and their ordered questions.
//
// A Section's total marks are never stored; TotalMarks always derives them from
// marks per question and attempt count, so an edit to either factor, or a
// reload from a hand-edited file, can not leave a stale total behind.
package exam

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingClass     = errors.New("class is required")
	ErrMissingSubject   = errors.New("subject is required")
	ErrMissingSection   = errors.New("section title is required")
	ErrNonPositiveMarks = errors.New("marks per question must be positive")
	ErrNonPositiveCount = errors.New("attempt count must be positive")
	ErrEmptyQuestion    = errors.New("question text cannot be empty")
	ErrTooManyOptions   = errors.New("multiple choice questions take at most 4 options")
	ErrSeparatorInCell  = errors.New("column entries can not contain '|'")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// Metadata is the paper header. All values are free-form strings.
type Metadata struct {
	School     string `json:"school"`
	Title      string `json:"test"`
	Class      string `json:"class"`
	Subject    string `json:"subject"`
	Time       string `json:"time"`
	TotalMarks string `json:"marks"`
}

// Validate requires class and subject, the only mandatory header fields.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Class) == "" {
		return ErrMissingClass
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrMissingSubject
	}
	return nil
}

// Exam is the root of the document. It exclusively owns its sections.
type Exam struct {
	Meta     Metadata   `json:"meta"`
	Sections []*Section `json:"sections"`
}

// New creates an empty exam with the given header.
func New(meta Metadata) (*Exam, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &Exam{Meta: meta}, nil
}

// AddSection appends s and returns its index.
func (e *Exam) AddSection(s *Section) int {
	e.Sections = append(e.Sections, s)
	return len(e.Sections) - 1
}

// Section returns the section at index i.
func (e *Exam) Section(i int) (*Section, error) {
	if i < 0 || i >= len(e.Sections) {
		return nil, fmt.Errorf("section %d: %w", i, ErrIndexOutOfRange)
	}
	return e.Sections[i], nil
}

// RemoveSection deletes the section at index i, keeping the order of the rest.
func (e *Exam) RemoveSection(i int) error {
	if i < 0 || i >= len(e.Sections) {
		return fmt.Errorf("section %d: %w", i, ErrIndexOutOfRange)
	}
	e.Sections = append(e.Sections[:i], e.Sections[i+1:]...)
	return nil
}

// TotalSectionMarks sums the derived totals of all sections.
func (e *Exam) TotalSectionMarks() int {
	total := 0
	for _, s := range e.Sections {
		total += s.TotalMarks()
	}
	return total
}

// QuestionCount returns the number of questions across all sections.
func (e *Exam) QuestionCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Questions)
	}
	return n
}

// Validate checks the header and every section and question.
func (e *Exam) Validate() error {
	if err := e.Meta.Validate(); err != nil {
		return err
	}
	for i, s := range e.Sections {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("section %d (%s): %w", i+1, s.Name, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the exam.
func (e *Exam) Clone() *Exam {
	c := &Exam{Meta: e.Meta, Sections: make([]*Section, len(e.Sections))}
	for i, s := range e.Sections {
		c.Sections[i] = s.Clone()
	}
	return c
}

// Outline renders the structure preview: one header line per section followed
// by an indented, truncated line per question.
func (e *Exam) Outline() []string {
	var lines []string
	for _, s := range e.Sections {
		lines = append(lines, fmt.Sprintf("--- %s : %s %s ---", s.Name, s.Description, s.MarkingLabel()))
		for i, q := range s.Questions {
			lines = append(lines, fmt.Sprintf("    %d. %s...", i+1, truncateRunes(q.Prompt(), 40)))
		}
	}
	return lines
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Section is a graded group of questions sharing a marking scheme.
type Section struct {
	Name             string     `json:"name"`
	Description      string     `json:"desc"`
	MarksPerQuestion int        `json:"marks_per_q"`
	AttemptCount     int        `json:"attempt_count"`
	Questions        []Question `json:"-"`
}

// NewSection creates a section with no questions.
func NewSection(name, desc string, marksPerQuestion, attemptCount int) (*Section, error) {
	s := &Section{Name: name, Description: desc}
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingSection
	}
	if err := s.SetMarking(marksPerQuestion, attemptCount); err != nil {
		return nil, err
	}
	return s, nil
}

// SetMarking changes both factors of the marking scheme.
func (s *Section) SetMarking(marksPerQuestion, attemptCount int) error {
	if marksPerQuestion <= 0 {
		return ErrNonPositiveMarks
	}
	if attemptCount <= 0 {
		return ErrNonPositiveCount
	}
	s.MarksPerQuestion = marksPerQuestion
	s.AttemptCount = attemptCount
	return nil
}

// TotalMarks is MarksPerQuestion × AttemptCount.
func (s *Section) TotalMarks() int {
	return s.MarksPerQuestion * s.AttemptCount
}

// MarkingLabel formats the marking scheme as "(m x n = t)".
func (s *Section) MarkingLabel() string {
	return fmt.Sprintf("(%d x %d = %d)", s.MarksPerQuestion, s.AttemptCount, s.TotalMarks())
}

// AddQuestion validates q and appends it, returning its index.
func (s *Section) AddQuestion(q Question) (int, error) {
	if err := q.Validate(); err != nil {
		return -1, err
	}
	s.Questions = append(s.Questions, q)
	return len(s.Questions) - 1, nil
}

// ReplaceQuestion validates q and puts it at index i.
func (s *Section) ReplaceQuestion(i int, q Question) error {
	if i < 0 || i >= len(s.Questions) {
		return fmt.Errorf("question %d: %w", i, ErrIndexOutOfRange)
	}
	if err := q.Validate(); err != nil {
		return err
	}
	s.Questions[i] = q
	return nil
}

// RemoveQuestion deletes the question at index i.
func (s *Section) RemoveQuestion(i int) error {
	if i < 0 || i >= len(s.Questions) {
		return fmt.Errorf("question %d: %w", i, ErrIndexOutOfRange)
	}
	s.Questions = append(s.Questions[:i], s.Questions[i+1:]...)
	return nil
}

// Validate checks the section's marking scheme and questions.
func (s *Section) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrMissingSection
	}
	if s.MarksPerQuestion <= 0 {
		return ErrNonPositiveMarks
	}
	if s.AttemptCount <= 0 {
		return ErrNonPositiveCount
	}
	for i, q := range s.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := *s
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = q.clone()
	}
	return &c
}
