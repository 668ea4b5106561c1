package layout

import (
	"reflect"
	"strings"
	"testing"
	"testing/quick"

	"paperify/internal/exam"
	"paperify/internal/rtl"
)

func newExam(t *testing.T) *exam.Exam {
	t.Helper()
	e, err := exam.New(exam.Metadata{
		School: "City Grammar School", Title: "Final Term", Class: "9",
		Subject: "Physics", Time: "3h", TotalMarks: "75",
	})
	if err != nil {
		t.Fatalf("exam.New failed: %v", err)
	}
	return e
}

func addSection(t *testing.T, e *exam.Exam, name, desc string, m, n int, qs ...exam.Question) *exam.Section {
	t.Helper()
	s, err := exam.NewSection(name, desc, m, n)
	if err != nil {
		t.Fatalf("NewSection failed: %v", err)
	}
	for _, q := range qs {
		if _, err := s.AddQuestion(q); err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}
	}
	e.AddSection(s)
	return s
}

func findText(texts []Text, pred func(Text) bool) (Text, bool) {
	for _, tx := range texts {
		if pred(tx) {
			return tx, true
		}
	}
	return Text{}, false
}

func withPrefix(prefix string) func(Text) bool {
	return func(tx Text) bool { return strings.HasPrefix(tx.Text, prefix) }
}

func TestRequiredExtent(t *testing.T) {
	g := DefaultGeometry()
	long := strings.Repeat("word ", 40) // 199 cells -> 3 lines at 85
	tests := []struct {
		name string
		el   Element
		want float64
	}{
		{"header", Element{Kind: ElementHeader}, 2.3},
		{"section", Element{Kind: ElementSection}, 1.0},
		{"short one line", Element{Kind: ElementQuestion, Question: &exam.ShortAnswer{Text: "Define work."}}, 0.45},
		{"short three lines", Element{Kind: ElementQuestion, Question: &exam.ShortAnswer{Text: long}}, 0.95},
		{"mcq", Element{Kind: ElementQuestion, Question: &exam.MultipleChoice{Text: "Unit of force?"}}, 1.25},
		{"match without prompt", Element{Kind: ElementQuestion, Question: &exam.MatchColumns{}}, 1.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredExtent(tt.el, g); !approx(got, tt.want) {
				t.Errorf("RequiredExtent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaginator_BreaksOnlyWhenContentExists(t *testing.T) {
	g := DefaultGeometry()
	p := NewPaginator(g)

	if p.Reserve(100) {
		t.Fatal("an empty page must not break")
	}
	p.Draw(Rule{X1: 0, X2: 1, Y: p.Cursor()})
	p.Advance(5)
	if p.Reserve(5) {
		t.Fatal("5.69in left, 5in should fit")
	}
	if !p.Reserve(6) {
		t.Fatal("expected a page break")
	}
	if p.State() != PageFull {
		t.Errorf("state after break = %v", p.State())
	}
	if !approx(p.Cursor(), g.Top()) {
		t.Errorf("cursor not reset: %v", p.Cursor())
	}
	if p.Reserve(1) || p.State() != PageFull {
		t.Errorf("a fitting reservation must not clear the break, state = %v", p.State())
	}
	p.Draw(Rule{X1: 0, X2: 1, Y: p.Cursor()})
	if p.State() != WritingPage {
		t.Errorf("state after drawing on the new page = %v", p.State())
	}
	pages := p.Finish()
	if len(pages) != 2 || pages[0].Number != 1 || pages[1].Number != 2 {
		t.Fatalf("unexpected pages %+v", pages)
	}
	if p.Breaks() != 1 {
		t.Errorf("Breaks() = %d", p.Breaks())
	}
}

func TestLayout_MCQExample(t *testing.T) {
	e := newExam(t)
	addSection(t, e, "Section A", "Choose the correct option", 2, 5,
		&exam.MultipleChoice{Text: "Capital of Pakistan?", Options: []string{"Lahore", "Islamabad", "Karachi", "Quetta"}})

	g := DefaultGeometry()
	pages := NewEngine(g, nil).Layout(e)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	texts := pages[0].Texts()

	marks, ok := findText(texts, func(tx Text) bool { return tx.Text == "(2 x 5 = 10)" })
	if !ok {
		t.Fatal("section annotation with total 10 not found")
	}
	if marks.Align != AlignEnd || !approx(marks.X, g.PageWidth-g.MarginX-0.1) {
		t.Errorf("annotation should sit at the right edge, got x=%v align=%v", marks.X, marks.Align)
	}

	var opts [4]Text
	for i, label := range []string{"(a) Lahore", "(b) Islamabad", "(c) Karachi", "(d) Quetta"} {
		tx, ok := findText(texts, func(tx Text) bool { return tx.Text == label })
		if !ok {
			t.Fatalf("option %q not drawn", label)
		}
		opts[i] = tx
	}
	if !approx(opts[0].Y, opts[1].Y) || !approx(opts[2].Y, opts[3].Y) {
		t.Error("options a/b and c/d should share a row")
	}
	if !approx(opts[0].Y-opts[2].Y, g.LineHeight) {
		t.Errorf("rows should be one line apart, got %v", opts[0].Y-opts[2].Y)
	}
	if !approx(opts[0].X, opts[2].X) || !approx(opts[1].X-opts[0].X, 3.5) {
		t.Errorf("unexpected grid columns: %v %v", opts[0].X, opts[1].X)
	}
}

func TestLayout_MatchColumnsUnevenRows(t *testing.T) {
	e := newExam(t)
	addSection(t, e, "Section B", "Match", 1, 3,
		&exam.MatchColumns{ColumnA: []string{"Newton", "Joule", "Watt"}, ColumnB: []string{"Force"}})

	g := DefaultGeometry()
	texts := NewEngine(g, nil).Layout(e)[0].Texts()

	leftX := g.MarginX + 1.0
	rightX := g.PageWidth - g.MarginX - 1.0
	var rowsA, rowsB []Text
	for _, tx := range texts {
		if tx.Bold {
			continue
		}
		switch {
		case approx(tx.X, leftX) && tx.Align == AlignStart:
			rowsA = append(rowsA, tx)
		case approx(tx.X, rightX) && tx.Align == AlignEnd:
			rowsB = append(rowsB, tx)
		}
	}
	if len(rowsA) != 3 {
		t.Fatalf("expected 3 column A rows, got %d", len(rowsA))
	}
	if len(rowsB) != 1 || rowsB[0].Text != "Force" || !approx(rowsB[0].Y, rowsA[0].Y) {
		t.Fatalf("column B should only fill row 1, got %+v", rowsB)
	}
	if !approx(rowsA[0].Y-rowsA[2].Y, 2*g.LineHeight) {
		t.Error("rows should advance one line each")
	}
	if _, ok := findText(texts, func(tx Text) bool { return tx.Text == ColumnAHeading && tx.Bold }); !ok {
		t.Error("column A heading missing")
	}
}

func TestLayout_HeaderAndFooter(t *testing.T) {
	e := newExam(t)
	var qs []exam.Question
	for i := 0; i < 40; i++ {
		qs = append(qs, &exam.ShortAnswer{Text: "State Newton's second law of motion."})
	}
	addSection(t, e, "Section C", "Answer briefly", 2, 10, qs...)

	g := DefaultGeometry()
	pages := NewEngine(g, nil).Layout(e)
	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}

	first := pages[0]
	box, ok := first.Ops[0].(Rect)
	if !ok || !approx(box.Y+box.H, g.Top()) || box.LineWidth != 2 {
		t.Errorf("page 1 should open with the header box at the top margin, got %+v", first.Ops[0])
	}
	school, ok := findText(first.Texts(), withPrefix("City Grammar"))
	if !ok || school.Align != AlignCenter || !approx(school.Y, g.Top()-0.3) || school.Size != 16 {
		t.Errorf("unexpected school line %+v", school)
	}
	for _, want := range []string{"Class: 9", "Time: 3h", "Subject: Physics", "Marks: 75", StudentNameLabel, RollNoLabel} {
		if _, ok := findText(first.Texts(), func(tx Text) bool { return tx.Text == want }); !ok {
			t.Errorf("header line %q missing", want)
		}
	}

	for i, page := range pages {
		_, hasFooter := findText(page.Texts(), func(tx Text) bool { return tx.Text == FooterText })
		if last := i == len(pages)-1; hasFooter != last {
			t.Errorf("page %d: footer present=%v, last=%v", page.Number, hasFooter, last)
		}
	}
	footer, _ := findText(pages[len(pages)-1].Texts(), func(tx Text) bool { return tx.Text == FooterText })
	if footer.Align != AlignCenter || !approx(footer.Y, g.MarginBottom) || !approx(footer.X, g.PageWidth/2) {
		t.Errorf("unexpected footer placement %+v", footer)
	}

	// continuation pages start with a question number at the top margin
	second := pages[1].Texts()
	if len(second) == 0 || !approx(second[0].Y, g.Top()) || second[0].VAlign != VAlignTop {
		t.Errorf("page 2 should start at the top margin, got %+v", second)
	}
}

func TestProperty_OverflowingContentPaginates(t *testing.T) {
	g := DefaultGeometry()
	engine := NewEngine(g, nil)
	f := func(n uint8) bool {
		count := int(n%60) + 1
		e, _ := exam.New(exam.Metadata{Class: "5", Subject: "Math"})
		s, _ := exam.NewSection("A", "", 1, 1)
		for i := 0; i < count; i++ {
			s.AddQuestion(&exam.ShortAnswer{Text: "Solve for x."})
		}
		e.AddSection(s)

		total := RequiredExtent(Element{Kind: ElementHeader}, g) + RequiredExtent(Element{Kind: ElementSection}, g) +
			float64(count)*RequiredExtent(Element{Kind: ElementQuestion, Question: s.Questions[0]}, g)
		pages := engine.Layout(e)
		if total > g.Top()-g.MarginBottom && len(pages) < 2 {
			return false
		}
		for _, p := range pages {
			for _, tx := range p.Texts() {
				if tx.Y > g.Top()+1e-9 || tx.Y < g.MarginBottom-1e-9 {
					return false
				}
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestLayout_RTLQuestion(t *testing.T) {
	e := newExam(t)
	addSection(t, e, "حصہ الف", "درست جواب منتخب کریں", 1, 2,
		&exam.MultipleChoice{Text: "پاکستان کا دارالحکومت کون سا ہے؟", Options: []string{"لاہور", "اسلام آباد"}})

	g := DefaultGeometry()
	texts := NewEngine(g, nil).Layout(e)[0].Texts()

	title, ok := findText(texts, func(tx Text) bool { return tx.RTL && tx.VAlign == VAlignCenter })
	if !ok || title.Align != AlignEnd || !approx(title.X, g.PageWidth-g.MarginX-0.1) {
		t.Errorf("RTL section title should be right aligned, got %+v", title)
	}
	marks, _ := findText(texts, func(tx Text) bool { return tx.Text == "(1 x 2 = 2)" })
	if marks.Align != AlignStart || !approx(marks.X, g.MarginX+0.1) || !marks.Bold {
		t.Errorf("annotation should move to the left edge, got %+v", marks)
	}

	label, _ := findText(texts, func(tx Text) bool { return tx.Text == "1." })
	if label.Align != AlignStart || !approx(label.X, g.MarginX) || !label.Bold {
		t.Errorf("question number keeps the leading margin, got %+v", label)
	}

	prompt, ok := findText(texts, func(tx Text) bool { return tx.RTL && tx.VAlign == VAlignTop })
	if !ok {
		t.Fatal("RTL prompt not drawn")
	}
	anchor := g.PageWidth - g.MarginX - 0.2
	if prompt.Align != AlignEnd || !approx(prompt.X, anchor) || prompt.Font != rtl.FontRTL {
		t.Errorf("unexpected prompt placement %+v", prompt)
	}
	if prompt.Size != g.BodySize+g.RTLSizeDelta || prompt.Bold {
		t.Errorf("RTL style not applied: size=%v bold=%v", prompt.Size, prompt.Bold)
	}

	var opts []Text
	for _, tx := range texts {
		if tx.RTL && tx.VAlign == VAlignBaseline && tx.Align == AlignEnd {
			opts = append(opts, tx)
		}
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 RTL options, got %d", len(opts))
	}
	if !approx(opts[0].X, anchor) || !approx(opts[1].X, anchor-3.5) {
		t.Errorf("RTL grid should grow leftwards: %v %v", opts[0].X, opts[1].X)
	}
	for i, o := range opts {
		want := "(" + exam.OptionLabels[i] + ") "
		if !strings.HasPrefix(o.Text, want) {
			t.Errorf("option %d should start with %q in visual order, got %q", i, want, o.Text)
		}
	}
}

func TestLayout_RTLPromptWithNumber(t *testing.T) {
	e := newExam(t)
	addSection(t, e, "A", "", 1, 1, &exam.ShortAnswer{Text: "سوال 12 کا جواب"})

	texts := NewEngine(DefaultGeometry(), nil).Layout(e)[0].Texts()
	prompt, ok := findText(texts, func(tx Text) bool { return tx.RTL && tx.VAlign == VAlignTop })
	if !ok {
		t.Fatal("RTL prompt not drawn")
	}
	// The digits sit between the last and first words in visual order.
	if strings.HasPrefix(prompt.Text, "12") || strings.HasSuffix(prompt.Text, "12") || !strings.Contains(prompt.Text, " 12 ") {
		t.Errorf("number misplaced in visual run %q", prompt.Text)
	}
}

func TestLayout_DoesNotMutateDocument(t *testing.T) {
	e := newExam(t)
	addSection(t, e, "A", "desc", 2, 2,
		&exam.ShortAnswer{Text: "Explain inertia."},
		&exam.MatchColumns{Text: "Match", ColumnA: []string{"1", "2"}, ColumnB: []string{"x"}})
	before := e.Clone()

	NewEngine(DefaultGeometry(), nil).Layout(e)
	if !reflect.DeepEqual(before, e) {
		t.Error("layout changed the document")
	}
}

func TestLayout_EmptyExamHasOnePage(t *testing.T) {
	e, err := exam.New(exam.Metadata{Class: "1", Subject: "Art"})
	if err != nil {
		t.Fatal(err)
	}
	pages := NewEngine(Geometry{}, nil).Layout(e)
	if len(pages) != 1 || pages[0].Width != DefaultPageWidth {
		t.Fatalf("unexpected pages %+v", pages)
	}
	if _, ok := findText(pages[0].Texts(), func(tx Text) bool { return tx.Text == FooterText }); !ok {
		t.Error("footer missing")
	}
}
