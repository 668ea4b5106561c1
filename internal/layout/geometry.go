// Package layout turns an exam document into fixed-size pages of positioned
// drawing primitives. Coordinates are in inches with the origin at the bottom
// left corner of the page; the writing cursor descends from the top margin.
package layout

// Geometry is the page and typography configuration of a layout run.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginX      float64
	MarginTop    float64
	MarginBottom float64

	HeaderSize float64
	SubSize    float64
	BodySize   float64
	FooterSize float64

	// LineHeight is the fixed advance of one wrapped text line.
	LineHeight float64
	// WrapColumns is the display-column budget used to wrap question text.
	// It approximates proportional metrics and does not account for the
	// larger RTL font size.
	WrapColumns int
	// RTLSizeDelta is added to the requested size of every RTL run.
	RTLSizeDelta float64
}

// A4 page and the typography of the printed paper.
const (
	DefaultPageWidth    = 8.27
	DefaultPageHeight   = 11.69
	DefaultMargin       = 0.5
	DefaultLineHeight   = 0.25
	DefaultWrapColumns  = 85
	DefaultRTLSizeDelta = 2
)

// DefaultGeometry returns the A4 geometry of the printed paper.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:    DefaultPageWidth,
		PageHeight:   DefaultPageHeight,
		MarginX:      DefaultMargin,
		MarginTop:    DefaultMargin,
		MarginBottom: DefaultMargin,
		HeaderSize:   16,
		SubSize:      12,
		BodySize:     11,
		FooterSize:   8,
		LineHeight:   DefaultLineHeight,
		WrapColumns:  DefaultWrapColumns,
		RTLSizeDelta: DefaultRTLSizeDelta,
	}
}

// ContentWidth is the page width between the side margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.MarginX
}

// Top is the cursor position at the start of every page.
func (g Geometry) Top() float64 {
	return g.PageHeight - g.MarginTop
}

// withDefaults fills zero fields from DefaultGeometry.
func (g Geometry) withDefaults() Geometry {
	d := DefaultGeometry()
	if g.PageWidth <= 0 || g.PageHeight <= 0 {
		g.PageWidth, g.PageHeight = d.PageWidth, d.PageHeight
		g.MarginX, g.MarginTop, g.MarginBottom = d.MarginX, d.MarginTop, d.MarginBottom
		g.RTLSizeDelta = d.RTLSizeDelta
	}
	if g.HeaderSize <= 0 {
		g.HeaderSize = d.HeaderSize
	}
	if g.SubSize <= 0 {
		g.SubSize = d.SubSize
	}
	if g.BodySize <= 0 {
		g.BodySize = d.BodySize
	}
	if g.FooterSize <= 0 {
		g.FooterSize = d.FooterSize
	}
	if g.LineHeight <= 0 {
		g.LineHeight = d.LineHeight
	}
	if g.WrapColumns <= 0 {
		g.WrapColumns = d.WrapColumns
	}
	return g
}
