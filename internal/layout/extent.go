package layout

import "paperify/internal/exam"

// ElementKind identifies a unit the engine places as a whole.
type ElementKind int

const (
	ElementHeader ElementKind = iota
	ElementSection
	ElementQuestion
)

// Element is the input of RequiredExtent. Question is only read for
// ElementQuestion.
type Element struct {
	Kind     ElementKind
	Question exam.Question
}

// Vertical allowances of the printed paper, in inches.
const (
	headerBoxHeight  = 2.0
	headerBoxPad     = 0.1
	headerGap        = 0.3
	sectionBoxHeight = 0.4
	sectionBoxPad    = 0.05
	sectionGap       = 0.25
	sectionReserve   = 1.0
	questionPad      = 0.2
	mcqAllowance     = 0.8
	matchAllowance   = 1.5
)

// RequiredExtent estimates the vertical room an element needs before any of
// it is drawn. For questions it counts wrapped prompt lines; match tables get
// a fixed allowance and consume their rows while drawing.
func RequiredExtent(el Element, g Geometry) float64 {
	switch el.Kind {
	case ElementHeader:
		return headerBoxHeight + headerGap
	case ElementSection:
		return sectionReserve
	}
	if el.Question == nil {
		return 0
	}
	lines := Wrap(el.Question.Prompt(), g.WrapColumns)
	h := float64(len(lines))*g.LineHeight + questionPad
	switch el.Question.Kind() {
	case exam.KindMultipleChoice:
		h += mcqAllowance
	case exam.KindMatchColumns:
		h += matchAllowance
	}
	return h
}
