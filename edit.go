package main

import (
	"fmt"
	"strconv"
	"strings"

	"paperify/internal/exam"
)

// questionInput carries the question body flags shared by -add-question and
// -replace-question.
type questionInput struct {
	Kind    string
	Options string // ';' separated
	ColumnA string // '|' separated
	ColumnB string
}

func (in questionInput) build(text string) (exam.Question, error) {
	kind, err := exam.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case exam.KindMultipleChoice:
		return &exam.MultipleChoice{Text: text, Options: splitOptions(in.Options)}, nil
	case exam.KindMatchColumns:
		return &exam.MatchColumns{
			Text:    text,
			ColumnA: splitCells(in.ColumnA),
			ColumnB: splitCells(in.ColumnB),
		}, nil
	default:
		return &exam.ShortAnswer{Text: text}, nil
	}
}

func splitOptions(s string) []string {
	return exam.SplitLines(strings.ReplaceAll(s, ";", "\n"))
}

func splitCells(s string) []string {
	return exam.SplitLines(strings.ReplaceAll(s, exam.ColumnSeparator, "\n"))
}

// editRequest is one batch of command line edits. Section and question
// references are 1-based and point into the document as it was opened:
// markings and replacements run first, then question and section removals,
// then additions.
type editRequest struct {
	SetMarking      string // S:M:N
	ReplaceQuestion string // S.Q
	ReplaceText     string
	RemoveQuestion  string // S.Q
	RemoveSection   int

	AddSection string
	Desc       string
	Per        int
	Count      int

	AddQuestion string
	To          int // 0 = last section

	Input questionInput
}

func editRequestFromFlags() editRequest {
	return editRequest{
		SetMarking:      *setMarkingFlag,
		ReplaceQuestion: *replaceQuestionFlag,
		ReplaceText:     *textFlag,
		RemoveQuestion:  *removeQuestionFlag,
		RemoveSection:   *removeSectionFlag,
		AddSection:      *sectionFlag,
		Desc:            *descFlag,
		Per:             *perFlag,
		Count:           *countFlag,
		AddQuestion:     *questionFlag,
		To:              *toFlag,
		Input: questionInput{
			Kind:    *kindFlag,
			Options: *optionsFlag,
			ColumnA: *colAFlag,
			ColumnB: *colBFlag,
		},
	}
}

// Empty reports whether the request changes nothing.
func (r editRequest) Empty() bool {
	return r.SetMarking == "" && r.ReplaceQuestion == "" && r.RemoveQuestion == "" &&
		r.RemoveSection <= 0 && r.AddSection == "" && r.AddQuestion == ""
}

// parseMarking parses "S:M:N" into a 0-based section, marks per question and
// attempt count.
func parseMarking(s string) (section, marks, count int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("marking %q: want SECTION:MARKS:COUNT", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("marking %q: %q is not a number", s, p)
		}
		nums[i] = n
	}
	if nums[0] < 1 {
		return 0, 0, 0, fmt.Errorf("marking %q: sections are numbered from 1", s)
	}
	return nums[0] - 1, nums[1], nums[2], nil
}

// parseQuestionRef parses "S.Q" into 0-based section and question indices.
func parseQuestionRef(s string) (section, index int, err error) {
	sec, q, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("question %q: want SECTION.QUESTION", s)
	}
	section, err = strconv.Atoi(strings.TrimSpace(sec))
	if err != nil {
		return 0, 0, fmt.Errorf("question %q: bad section number", s)
	}
	index, err = strconv.Atoi(strings.TrimSpace(q))
	if err != nil {
		return 0, 0, fmt.Errorf("question %q: bad question number", s)
	}
	if section < 1 || index < 1 {
		return 0, 0, fmt.Errorf("question %q: sections and questions are numbered from 1", s)
	}
	return section - 1, index - 1, nil
}

// applyEdits runs r against the open document, printing one line per change.
func applyEdits(app *App, r editRequest) error {
	if r.SetMarking != "" {
		sec, marks, count, err := parseMarking(r.SetMarking)
		if err != nil {
			return err
		}
		if err := app.SetSectionMarking(sec, marks, count); err != nil {
			return err
		}
		fmt.Printf("Section %d: %d marks each, attempt %d\n", sec+1, marks, count)
	}

	if r.ReplaceQuestion != "" {
		sec, idx, err := parseQuestionRef(r.ReplaceQuestion)
		if err != nil {
			return err
		}
		q, err := r.Input.build(r.ReplaceText)
		if err != nil {
			return err
		}
		if err := app.ReplaceQuestion(sec, idx, q); err != nil {
			return err
		}
		fmt.Printf("Replaced question %d.%d\n", sec+1, idx+1)
	}

	if r.RemoveQuestion != "" {
		sec, idx, err := parseQuestionRef(r.RemoveQuestion)
		if err != nil {
			return err
		}
		if err := app.RemoveQuestion(sec, idx); err != nil {
			return err
		}
		fmt.Printf("Removed question %d.%d\n", sec+1, idx+1)
	}

	if r.RemoveSection > 0 {
		if err := app.RemoveSection(r.RemoveSection - 1); err != nil {
			return err
		}
		fmt.Printf("Removed section %d\n", r.RemoveSection)
	}

	if r.AddSection != "" {
		idx, err := app.AddSection(r.AddSection, r.Desc, r.Per, r.Count)
		if err != nil {
			return err
		}
		fmt.Printf("Added section %d: %s\n", idx+1, r.AddSection)
	}

	if r.AddQuestion == "" {
		return nil
	}
	q, err := r.Input.build(r.AddQuestion)
	if err != nil {
		return err
	}
	section := r.To - 1
	if r.To <= 0 {
		doc := app.Exam()
		if doc == nil || len(doc.Sections) == 0 {
			return fmt.Errorf("add a section before adding questions")
		}
		section = len(doc.Sections) - 1
	}
	idx, err := app.AddQuestion(section, q)
	if err != nil {
		return err
	}
	fmt.Printf("Added question %d to section %d\n", idx+1, section+1)
	return nil
}
