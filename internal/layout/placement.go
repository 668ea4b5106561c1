package layout

// Align is the horizontal anchor of a text run, in logical (LTR) terms.
type Align int

const (
	AlignStart Align = iota
	AlignEnd
	AlignCenter
)

func (a Align) String() string {
	switch a {
	case AlignEnd:
		return "end"
	case AlignCenter:
		return "center"
	default:
		return "start"
	}
}

// VAlign is the vertical anchor of a text run.
type VAlign int

const (
	VAlignBaseline VAlign = iota
	VAlignTop
	VAlignCenter
)

// ResolvePlacement maps a logical anchor to the effective device anchor. RTL
// runs with mirroring requested have start and end swapped and x reflected
// across the page; centered runs and callers that pass mirror=false keep
// their coordinates.
func ResolvePlacement(x float64, align Align, rtl, mirror bool, pageWidth float64) (float64, Align) {
	if align == AlignCenter || !rtl || !mirror {
		return x, align
	}
	if align == AlignStart {
		return pageWidth - x, AlignEnd
	}
	return pageWidth - x, AlignStart
}

// ResolveStyle enlarges RTL runs by delta and drops bold, which the RTL face
// is not expected to carry.
func ResolveStyle(size float64, bold, rtl bool, delta float64) (float64, bool) {
	if !rtl {
		return size, bold
	}
	return size + delta, false
}
