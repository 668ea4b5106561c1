// Package rtl decides, per string, whether text is right-to-left Urdu/Arabic
// script and turns such text into a single left-to-right drawable run: shaped
// into joined presentation forms, then reordered into visual order.
package rtl

import (
	"sync"
	"unicode"

	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"

	"paperify/internal/logger"
)

// FontRole selects the font face a run is drawn with.
type FontRole int

const (
	// FontBody is the globally configured Latin body face.
	FontBody FontRole = iota
	// FontRTL is the Urdu/Arabic capable face.
	FontRTL
)

func (f FontRole) String() string {
	if f == FontRTL {
		return "rtl"
	}
	return "body"
}

// Run is a processed string ready to be drawn as one unit.
type Run struct {
	Text string
	Font FontRole
	RTL  bool
}

// IsRTL reports whether s contains any code point of the Arabic block
// (U+0600–U+06FF). One such character anywhere makes the whole string RTL.
func IsRTL(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// Policy applies detection, shaping and reordering.
type Policy struct {
	shaper Shaper
	notice sync.Once
}

// NewPolicy returns a policy that shapes RTL text with shaper. A nil shaper
// degrades output (letters stay unjoined) but never fails.
func NewPolicy(shaper Shaper) *Policy {
	return &Policy{shaper: shaper}
}

// Process classifies text and, for RTL text, returns its shaped visual form
// with the RTL font selected. Empty and LTR input come back untouched.
func (p *Policy) Process(text string) Run {
	if text == "" || !IsRTL(text) {
		return Run{Text: text, Font: FontBody}
	}

	s := norm.NFC.String(text)
	if p.shaper != nil {
		s = p.shaper.Shape(s)
	} else {
		p.notice.Do(func() {
			logger.Warn("no RTL shaper configured, Urdu letters will not be joined")
		})
	}

	return Run{Text: Visual(s), Font: FontRTL, RTL: true}
}

// Visual reorders a logical-order string into the left-to-right visual order
// expected by a drawing API that only paints left-to-right runs. The paragraph
// direction is right-to-left, so the level runs are emitted last to first and
// the characters of each right-to-left run are reversed with brackets
// mirrored.
func Visual(s string) string {
	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.RightToLeft)); err != nil {
		return fallbackVisual(s)
	}
	order, err := p.Order()
	if err != nil {
		return fallbackVisual(s)
	}

	out := make([]byte, 0, len(s))
	for i := order.NumRuns() - 1; i >= 0; i-- {
		run := order.Run(i)
		if run.Direction() == bidi.RightToLeft {
			out = append(out, bidi.ReverseString(run.String())...)
		} else {
			out = append(out, run.String()...)
		}
	}
	return string(out)
}

// fallbackVisual reverses the string while keeping runs of Latin letters and
// digits in reading order. Used when the bidi algorithm rejects the input.
func fallbackVisual(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in))
	for i := len(in) - 1; i >= 0; {
		if isLTRRune(in[i]) {
			j := i
			for j > 0 && (isLTRRune(in[j-1]) || (in[j-1] == ' ' && j > 1 && isLTRRune(in[j-2]))) {
				j--
			}
			out = append(out, in[j:i+1]...)
			i = j - 1
			continue
		}
		out = append(out, mirror(in[i]))
		i--
	}
	return string(out)
}

func isLTRRune(r rune) bool {
	return (unicode.IsLetter(r) || unicode.IsDigit(r)) && !IsRTL(string(r)) && !(r >= 0xFB50 && r <= 0xFEFF)
}

var mirrors = map[rune]rune{'(': ')', ')': '(', '[': ']', ']': '[', '{': '}', '}': '{', '<': '>', '>': '<'}

func mirror(r rune) rune {
	if m, ok := mirrors[r]; ok {
		return m
	}
	return r
}
