package layout

import (
	"fmt"

	"paperify/internal/exam"
	"paperify/internal/logger"
	"paperify/internal/rtl"
)

// Fixed labels printed on every paper.
const (
	StudentNameLabel = "Student Name: ____________________________"
	RollNoLabel      = "Roll No: ____________"
	ColumnAHeading   = "Column A"
	ColumnBHeading   = "Column B"
	FooterText       = "End of Question Paper"
)

// Horizontal offsets, in inches.
const (
	boxInset      = 0.2
	metaColumn    = 0.5
	barInset      = 0.1
	questionInset = 0.6
	rtlTextInset  = 0.2
	optionColumn  = 3.5
	matchInset    = 1.0
	optionGap     = 0.1
	questionGap   = 0.1
	shortGap      = 0.15
	matchGap      = 0.2
)

// Engine lays out exam documents. It only reads the document it is given.
type Engine struct {
	g      Geometry
	policy *rtl.Policy
}

// NewEngine creates an engine. A nil policy uses the built-in Arabic shaper.
func NewEngine(g Geometry, policy *rtl.Policy) *Engine {
	if policy == nil {
		policy = rtl.NewPolicy(rtl.ArabicShaper{})
	}
	return &Engine{g: g.withDefaults(), policy: policy}
}

// Geometry returns the effective geometry of the engine.
func (e *Engine) Geometry() Geometry { return e.g }

// Layout places the header, every section and question, and the footer, and
// returns the finished pages. There is always at least one page.
func (e *Engine) Layout(ex *exam.Exam) []Page {
	p := NewPaginator(e.g)

	e.header(p, ex.Meta)
	for _, s := range ex.Sections {
		e.section(p, s)
		for i, q := range s.Questions {
			e.question(p, i, q)
		}
	}
	e.text(p, e.g.PageWidth/2, e.g.MarginBottom, FooterText, e.g.FooterSize, false, AlignCenter, VAlignBaseline, true)

	pages := p.Finish()
	logger.Debug("layout finished",
		logger.Int("pages", len(pages)),
		logger.Int("sections", len(ex.Sections)),
		logger.Int("questions", ex.QuestionCount()))
	return pages
}

// text processes s through the RTL policy and draws it. Empty runs are
// skipped. mirror=false keeps the caller's coordinates for RTL runs.
func (e *Engine) text(p *Paginator, x, y float64, s string, size float64, bold bool, align Align, valign VAlign, mirror bool) {
	if s == "" {
		return
	}
	run := e.policy.Process(s)
	x, align = ResolvePlacement(x, align, run.RTL, mirror, e.g.PageWidth)
	size, bold = ResolveStyle(size, bold, run.RTL, e.g.RTLSizeDelta)
	p.Draw(Text{
		X: x, Y: y,
		Text:   run.Text,
		Font:   run.Font,
		Size:   size,
		Bold:   bold,
		Align:  align,
		VAlign: valign,
		RTL:    run.RTL,
	})
}

func (e *Engine) header(p *Paginator, m exam.Metadata) {
	p.Reserve(RequiredExtent(Element{Kind: ElementHeader}, e.g))

	g := e.g
	top := p.Cursor()
	p.Draw(Rect{
		X: g.MarginX, Y: top - headerBoxHeight,
		W: g.ContentWidth(), H: headerBoxHeight,
		Pad: headerBoxPad, Rounded: true,
		Fill: White, LineWidth: 2,
	})

	center := g.PageWidth / 2
	left := g.MarginX + boxInset
	right := center + metaColumn

	e.text(p, center, top-0.3, m.School, g.HeaderSize, true, AlignCenter, VAlignBaseline, true)
	e.text(p, center, top-0.6, m.Title, g.SubSize, true, AlignCenter, VAlignBaseline, true)

	ruleY := top - 0.8
	p.Draw(Rule{X1: left, X2: g.PageWidth - g.MarginX - boxInset, Y: ruleY, LineWidth: 1})

	metaY := ruleY - 0.3
	e.text(p, left, metaY, "Class: "+m.Class, g.BodySize, false, AlignStart, VAlignBaseline, true)
	e.text(p, right, metaY, "Time: "+m.Time, g.BodySize, false, AlignStart, VAlignBaseline, true)

	metaY -= 0.25
	e.text(p, left, metaY, "Subject: "+m.Subject, g.BodySize, false, AlignStart, VAlignBaseline, true)
	e.text(p, right, metaY, "Marks: "+m.TotalMarks, g.BodySize, false, AlignStart, VAlignBaseline, true)

	nameY := metaY - 0.35
	e.text(p, left, nameY, StudentNameLabel, g.BodySize, false, AlignStart, VAlignBaseline, true)
	e.text(p, right, nameY, RollNoLabel, g.BodySize, false, AlignStart, VAlignBaseline, true)

	p.Advance(headerBoxHeight + headerGap)
}

// section draws the shaded title bar. The marking annotation sits on the side
// opposite the title; an RTL description moves the title to the right.
func (e *Engine) section(p *Paginator, s *exam.Section) {
	p.Reserve(RequiredExtent(Element{Kind: ElementSection}, e.g))

	g := e.g
	top := p.Cursor()
	p.Draw(Rect{
		X: g.MarginX, Y: top - sectionBoxHeight,
		W: g.ContentWidth(), H: sectionBoxHeight,
		Pad: sectionBoxPad, Rounded: true,
		Fill: SectionColor, LineWidth: 1,
	})

	y := top - 0.25
	title := s.Name + "   " + s.Description
	left, right := g.MarginX+barInset, g.PageWidth-g.MarginX-barInset
	if rtl.IsRTL(s.Description) {
		e.text(p, right, y, title, g.BodySize, false, AlignEnd, VAlignCenter, false)
		e.text(p, left, y, s.MarkingLabel(), g.BodySize, true, AlignStart, VAlignCenter, false)
	} else {
		e.text(p, left, y, title, g.BodySize, true, AlignStart, VAlignCenter, false)
		e.text(p, right, y, s.MarkingLabel(), g.BodySize, true, AlignEnd, VAlignCenter, false)
	}

	p.Advance(sectionBoxHeight + sectionGap)
}

// question draws the number label and wrapped prompt, then the trailer of the
// question's kind. Only the pre-check can move a question to the next page.
func (e *Engine) question(p *Paginator, i int, q exam.Question) {
	g := e.g
	lines := Wrap(q.Prompt(), g.WrapColumns)
	p.Reserve(RequiredExtent(Element{Kind: ElementQuestion, Question: q}, g))

	isRTL := rtl.IsRTL(q.Prompt())
	e.text(p, g.MarginX, p.Cursor(), fmt.Sprintf("%d.", i+1), g.BodySize, true, AlignStart, VAlignTop, false)

	anchor, align := g.MarginX+questionInset, AlignStart
	if isRTL {
		anchor, align = g.PageWidth-g.MarginX-rtlTextInset, AlignEnd
	}
	for _, line := range lines {
		e.text(p, anchor, p.Cursor(), line, g.BodySize, false, align, VAlignTop, false)
		p.Advance(g.LineHeight)
	}
	p.Advance(questionGap)

	switch q := q.(type) {
	case *exam.MultipleChoice:
		e.options(p, q, anchor, isRTL)
	case *exam.MatchColumns:
		e.columns(p, q)
	default:
		p.Advance(shortGap)
	}
}

// options draws a 2x2 grid: (a) (b) on the first row, (c) (d) on the second.
// RTL questions put the label after the text and grow the grid leftwards.
func (e *Engine) options(p *Paginator, q *exam.MultipleChoice, anchor float64, isRTL bool) {
	g := e.g
	step, align := optionColumn, AlignStart
	if isRTL {
		step, align = -optionColumn, AlignEnd
	}

	y := p.Cursor()
	for i := range q.Options {
		if i >= exam.MaxOptions {
			break
		}
		x := anchor + float64(i%2)*step
		row := y - float64(i/2)*g.LineHeight
		e.text(p, x, row, q.Labeled(i, isRTL), g.BodySize, false, align, VAlignBaseline, false)
	}
	p.Advance(2*g.LineHeight + optionGap)
}

// columns draws the match table. Rows run to the longer column; the shorter
// side is left blank.
func (e *Engine) columns(p *Paginator, q *exam.MatchColumns) {
	g := e.g
	left, right := g.MarginX+matchInset, g.PageWidth-g.MarginX-matchInset

	e.text(p, left, p.Cursor(), ColumnAHeading, g.BodySize, true, AlignStart, VAlignBaseline, true)
	e.text(p, right, p.Cursor(), ColumnBHeading, g.BodySize, true, AlignEnd, VAlignBaseline, true)
	p.Advance(g.LineHeight)

	p.Draw(Rule{X1: g.MarginX, X2: g.PageWidth - g.MarginX, Y: p.Cursor() + 0.1, LineWidth: 0.5})

	for r := 0; r < q.Rows(); r++ {
		a, b := q.Cell(r)
		e.text(p, left, p.Cursor(), a, g.BodySize, false, AlignStart, VAlignBaseline, false)
		e.text(p, right, p.Cursor(), b, g.BodySize, false, AlignEnd, VAlignBaseline, false)
		p.Advance(g.LineHeight)
	}
	p.Advance(matchGap)
}
