package main

import (
	"reflect"
	"testing"

	"paperify/internal/exam"
)

func TestParseMarking(t *testing.T) {
	tests := []struct {
		in                   string
		section, marks, want int
		wantErr              bool
	}{
		{"1:2:5", 0, 2, 5, false},
		{" 3 : 1 : 10 ", 2, 1, 10, false},
		{"0:2:5", 0, 0, 0, true},
		{"1:2", 0, 0, 0, true},
		{"a:2:5", 0, 0, 0, true},
	}
	for _, tt := range tests {
		sec, marks, count, err := parseMarking(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMarking(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (sec != tt.section || marks != tt.marks || count != tt.want) {
			t.Errorf("parseMarking(%q) = %d, %d, %d", tt.in, sec, marks, count)
		}
	}
}

func TestParseQuestionRef(t *testing.T) {
	tests := []struct {
		in             string
		section, index int
		wantErr        bool
	}{
		{"1.1", 0, 0, false},
		{"2.10", 1, 9, false},
		{"2", 0, 0, true},
		{"0.1", 0, 0, true},
		{"1.x", 0, 0, true},
	}
	for _, tt := range tests {
		sec, idx, err := parseQuestionRef(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseQuestionRef(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (sec != tt.section || idx != tt.index) {
			t.Errorf("parseQuestionRef(%q) = %d, %d", tt.in, sec, idx)
		}
	}
}

func TestSplitOptionsAndCells(t *testing.T) {
	if got := splitOptions(" Lahore ; Islamabad;;Karachi; "); !reflect.DeepEqual(got, []string{"Lahore", "Islamabad", "Karachi"}) {
		t.Errorf("splitOptions = %q", got)
	}
	if got := splitCells("Sun | Moon|"); !reflect.DeepEqual(got, []string{"Sun", "Moon"}) {
		t.Errorf("splitCells = %q", got)
	}
	if splitCells("") != nil {
		t.Error("empty input should give no cells")
	}
}

func TestEditRequest_Empty(t *testing.T) {
	if !(editRequest{Per: 1, Count: 1, Input: questionInput{Kind: string(exam.KindShortAnswer)}}).Empty() {
		t.Error("defaults alone should be empty")
	}
	if (editRequest{RemoveSection: 1}).Empty() {
		t.Error("a section removal is an edit")
	}
}

func TestApplyEdits(t *testing.T) {
	app, _ := newTestApp(t)
	buildSampleExam(t, app)

	err := applyEdits(app, editRequest{
		SetMarking:      "1:3:2",
		ReplaceQuestion: "1.2",
		ReplaceText:     "Name the national flower.",
		RemoveQuestion:  "1.3",
		AddSection:      "Section B",
		Desc:            "Answer briefly",
		Per:             5,
		Count:           1,
		AddQuestion:     "Describe the water cycle.",
		Input:           questionInput{Kind: string(exam.KindShortAnswer)},
	})
	if err != nil {
		t.Fatalf("applyEdits failed: %v", err)
	}

	doc := app.Exam()
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	a := doc.Sections[0]
	if a.MarksPerQuestion != 3 || a.AttemptCount != 2 {
		t.Errorf("marking not applied: %d x %d", a.MarksPerQuestion, a.AttemptCount)
	}
	if len(a.Questions) != 2 {
		t.Fatalf("expected 2 questions left in section 1, got %d", len(a.Questions))
	}
	if a.Questions[1].Prompt() != "Name the national flower." {
		t.Errorf("question 1.2 = %q", a.Questions[1].Prompt())
	}
	b := doc.Sections[1]
	if len(b.Questions) != 1 || b.Questions[0].Prompt() != "Describe the water cycle." {
		t.Errorf("question not added to the new section: %+v", b.Questions)
	}

	if err := applyEdits(app, editRequest{RemoveSection: 1}); err != nil {
		t.Fatalf("RemoveSection failed: %v", err)
	}
	if doc := app.Exam(); len(doc.Sections) != 1 || doc.Sections[0].Name != "Section B" {
		t.Errorf("expected only Section B, got %+v", doc.Sections)
	}
}

func TestApplyEdits_Errors(t *testing.T) {
	app, _ := newTestApp(t)
	buildSampleExam(t, app)

	bad := []editRequest{
		{SetMarking: "1:0:5"},
		{SetMarking: "9:1:1"},
		{ReplaceQuestion: "1.9", ReplaceText: "x", Input: questionInput{Kind: string(exam.KindShortAnswer)}},
		{ReplaceQuestion: "1.1", ReplaceText: "x", Input: questionInput{Kind: "Essay"}},
		{RemoveQuestion: "2.1"},
		{RemoveSection: 4},
		{AddQuestion: "x", To: 5, Input: questionInput{Kind: string(exam.KindShortAnswer)}},
	}
	for _, r := range bad {
		if err := applyEdits(app, r); err == nil {
			t.Errorf("expected %+v to fail", r)
		}
	}
	if got := len(app.Exam().Sections[0].Questions); got != 3 {
		t.Errorf("failed edits changed the document: %d questions", got)
	}
}
