package pdf

import (
	"context"
	"io"
	"time"

	gopdf "github.com/VantageDataChat/GoPDF2"

	"paperify/internal/exam"
	"paperify/internal/layout"
	"paperify/internal/logger"
	"paperify/internal/rtl"
)

// PointsPerInch converts layout units to PDF user space.
const PointsPerInch = 72.0

// Font family names registered with the PDF document.
const (
	familyBody = "body"
	familyBold = "body-bold"
	familyRTL  = "rtl"
)

// Approximate vertical metrics, as a fraction of the font size, used to turn
// top and center anchors into baselines.
const (
	ascentRatio  = 0.78
	midlineRatio = 0.35
)

// Writer serializes layout pages with GoPDF2.
type Writer struct {
	fonts FontSet
}

// NewWriter creates a writer drawing with the given fonts.
func NewWriter(fonts FontSet) *Writer {
	if fonts.Bold == "" {
		fonts.Bold = fonts.Body
	}
	if fonts.RTL == "" {
		fonts.RTL = fonts.Body
	}
	return &Writer{fonts: fonts}
}

// Write renders pages to dst, one PDF page per layout page. The context is
// checked before every page.
func (w *Writer) Write(ctx context.Context, pages []layout.Page, meta exam.Metadata, dst io.Writer) error {
	if err := ctx.Err(); err != nil {
		return NewPDFError(ErrCancelled, "export cancelled", err)
	}
	if len(pages) == 0 {
		return NewPDFError(ErrGenerateFailed, "nothing to write", nil)
	}

	doc := &gopdf.GoPdf{}
	first := pages[0]
	doc.Start(gopdf.Config{PageSize: gopdf.Rect{W: first.Width * PointsPerInch, H: first.Height * PointsPerInch}})
	doc.SetInfo(gopdf.PdfInfo{
		Title:        meta.Title,
		Subject:      meta.Subject,
		Author:       meta.School,
		Creator:      "paperify",
		Producer:     "paperify",
		CreationDate: time.Now(),
	})

	faces := []struct{ family, path string }{
		{familyBody, w.fonts.Body},
		{familyBold, w.fonts.Bold},
		{familyRTL, w.fonts.RTL},
	}
	for _, face := range faces {
		family, path := face.family, face.path
		if path == "" {
			return NewPDFErrorWithDetails(ErrFontMissing, "font not configured", family, nil)
		}
		if err := doc.AddTTFFont(family, path); err != nil {
			return NewPDFErrorWithDetails(ErrFontMissing, "failed to load font", path, err)
		}
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return NewPDFErrorWithPage(ErrCancelled, "export cancelled", page.Number, err)
		}
		doc.AddPage()
		pw := &pageWriter{doc: doc, height: page.Height}
		for _, op := range page.Ops {
			if err := pw.draw(op); err != nil {
				return NewPDFErrorWithPage(ErrGenerateFailed, "failed to draw page", page.Number, err)
			}
		}
	}

	if err := doc.Write(dst); err != nil {
		return NewPDFError(ErrWriteFailed, "failed to write PDF", err)
	}
	logger.Debug("pdf written", logger.Int("pages", len(pages)))
	return nil
}

// pageWriter draws layout ops on the current PDF page.
type pageWriter struct {
	doc    *gopdf.GoPdf
	height float64
}

// toDevice converts a layout point (inches, origin bottom left) into PDF
// points with the origin at the top left.
func toDevice(x, y, pageHeight float64) (float64, float64) {
	return x * PointsPerInch, (pageHeight - y) * PointsPerInch
}

// baselineShift returns how far below the anchor the baseline sits, in
// points.
func baselineShift(v layout.VAlign, size float64) float64 {
	switch v {
	case layout.VAlignTop:
		return size * ascentRatio
	case layout.VAlignCenter:
		return size * midlineRatio
	default:
		return 0
	}
}

// alignedX shifts x so that a run of the given width honours align.
func alignedX(x, width float64, align layout.Align) float64 {
	switch align {
	case layout.AlignEnd:
		return x - width
	case layout.AlignCenter:
		return x - width/2
	default:
		return x
	}
}

func (pw *pageWriter) draw(op layout.Op) error {
	switch op := op.(type) {
	case layout.Text:
		return pw.text(op)
	case layout.Rect:
		return pw.rect(op)
	case layout.Rule:
		return pw.rule(op)
	}
	return nil
}

func (pw *pageWriter) text(t layout.Text) error {
	family := familyBody
	switch {
	case t.Font == rtl.FontRTL:
		family = familyRTL
	case t.Bold:
		family = familyBold
	}
	if err := pw.doc.SetFont(family, "", t.Size); err != nil {
		return err
	}
	width, err := pw.doc.MeasureTextWidth(t.Text)
	if err != nil {
		return err
	}

	x, y := toDevice(t.X, t.Y, pw.height)
	pw.doc.SetTextColor(0, 0, 0)
	pw.doc.SetXY(alignedX(x, width, t.Align), y+baselineShift(t.VAlign, t.Size))
	return pw.doc.Text(t.Text)
}

func (pw *pageWriter) rect(r layout.Rect) error {
	x0, y0 := toDevice(r.X-r.Pad, r.Y+r.H+r.Pad, pw.height)
	x1, y1 := toDevice(r.X+r.W+r.Pad, r.Y-r.Pad, pw.height)

	pw.doc.SetLineWidth(r.LineWidth)
	pw.doc.SetStrokeColor(0, 0, 0)
	pw.doc.SetFillColor(r.Fill.R, r.Fill.G, r.Fill.B)
	if r.Rounded && r.Pad > 0 {
		return pw.doc.Rectangle(x0, y0, x1, y1, "FD", r.Pad*PointsPerInch, 8)
	}
	return pw.doc.Rectangle(x0, y0, x1, y1, "FD", 0, 0)
}

func (pw *pageWriter) rule(r layout.Rule) error {
	x1, y := toDevice(r.X1, r.Y, pw.height)
	x2, _ := toDevice(r.X2, r.Y, pw.height)
	pw.doc.SetLineWidth(r.LineWidth)
	pw.doc.SetStrokeColor(0, 0, 0)
	pw.doc.Line(x1, y, x2, y)
	return nil
}
