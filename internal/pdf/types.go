// Package pdf serializes laid-out exam pages into a PDF file, validates the
// result and reads exported files back for inspection.
package pdf

import "time"

// PDFInfo describes an exported PDF file as read back from disk.
type PDFInfo struct {
	FilePath  string   `json:"file_path"`
	FileName  string   `json:"file_name"`
	PageCount int      `json:"page_count"`
	FileSize  int64    `json:"file_size"`
	PageText  []string `json:"page_text,omitempty"`
}

// Result is the outcome of a successful export.
type Result struct {
	Path     string        `json:"path"`
	Pages    int           `json:"pages"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}

// FontSet holds the TrueType files used for drawing. Bold and RTL fall back
// to Body when empty.
type FontSet struct {
	Body string `json:"body"`
	Bold string `json:"bold"`
	RTL  string `json:"rtl"`
}

// PDFErrorCode classifies PDFError values.
type PDFErrorCode string

const (
	ErrPDFNotFound    PDFErrorCode = "PDF_NOT_FOUND"
	ErrPDFInvalid     PDFErrorCode = "PDF_INVALID"
	ErrFontMissing    PDFErrorCode = "FONT_MISSING"
	ErrGenerateFailed PDFErrorCode = "GENERATE_FAILED"
	ErrWriteFailed    PDFErrorCode = "WRITE_FAILED"
	ErrCancelled      PDFErrorCode = "CANCELLED"
	ErrInternal       PDFErrorCode = "INTERNAL"
)

// PDFError is returned by every operation of the package.
type PDFError struct {
	Code    PDFErrorCode `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Page    int          `json:"page,omitempty"`
	Cause   error        `json:"-"`
}

func (e *PDFError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PDFError) Unwrap() error {
	return e.Cause
}

// NewPDFError creates a new PDFError with the given code, message, and optional cause
func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPDFErrorWithDetails creates a new PDFError with details
func NewPDFErrorWithDetails(code PDFErrorCode, message, details string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewPDFErrorWithPage creates a new PDFError for a specific page
func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}
