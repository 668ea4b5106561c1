package layout

import (
	"paperify/internal/rtl"
)

// Color is an RGB fill color.
type Color struct {
	R, G, B uint8
}

var (
	White        = Color{0xff, 0xff, 0xff}
	SectionColor = Color{0xbd, 0xc3, 0xc7}
)

// Op is one positioned drawing primitive: Text, Rect or Rule.
type Op interface {
	op()
}

// Text is a single run drawn at (X, Y). Content is already in visual order.
type Text struct {
	X, Y   float64
	Text   string
	Font   rtl.FontRole
	Size   float64
	Bold   bool
	Align  Align
	VAlign VAlign
	RTL    bool
}

// Rect is a stroked box with its lower left corner at (X, Y). Pad grows the
// drawn outline on every side; Rounded draws the corners with radius Pad.
type Rect struct {
	X, Y, W, H float64
	Pad        float64
	Rounded    bool
	Fill       Color
	LineWidth  float64
}

// Rule is a horizontal line from X1 to X2 at height Y.
type Rule struct {
	X1, X2, Y float64
	LineWidth float64
}

func (Text) op() {}
func (Rect) op() {}
func (Rule) op() {}

// Page is one finished page of the paper, numbered from 1.
type Page struct {
	Number int
	Width  float64
	Height float64
	Ops    []Op
}

// Texts returns the text runs of the page in drawing order.
func (p Page) Texts() []Text {
	var out []Text
	for _, op := range p.Ops {
		if t, ok := op.(Text); ok {
			out = append(out, t)
		}
	}
	return out
}
