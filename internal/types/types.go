// Package types defines the shared configuration and error types used across
// the exam paper generator.
package types

// Config holds the persisted application configuration
type Config struct {
	// Fonts
	BodyFontPath    string   `json:"body_font_path" mapstructure:"body_font_path"`
	BoldFontPath    string   `json:"bold_font_path" mapstructure:"bold_font_path"`
	RTLFontPath     string   `json:"rtl_font_path" mapstructure:"rtl_font_path"`         // Urdu/Arabic capable TrueType file
	RTLFontFamilies []string `json:"rtl_font_families" mapstructure:"rtl_font_families"` // fallback families, in priority order
	FontDirs        []string `json:"font_dirs" mapstructure:"font_dirs"`                 // extra directories searched for fonts

	// Text shaping
	ShapingEnabled bool    `json:"shaping_enabled" mapstructure:"shaping_enabled"`
	RTLSizeDelta   float64 `json:"rtl_size_delta" mapstructure:"rtl_size_delta"`
	WrapColumns    int     `json:"wrap_columns" mapstructure:"wrap_columns"` // character budget per question line

	// Output
	ValidateOutput bool   `json:"validate_output" mapstructure:"validate_output"` // run pdfcpu validation after export
	WorkDirectory  string `json:"work_directory" mapstructure:"work_directory"`
	BackupDir      string `json:"backup_dir" mapstructure:"backup_dir"` // empty: next to the saved file
	BackupKeep     int    `json:"backup_keep" mapstructure:"backup_keep"`
	HistoryDir     string `json:"history_dir" mapstructure:"history_dir"`

	// Logging
	LogFile  string `json:"log_file" mapstructure:"log_file"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`

	LastExamFile string `json:"last_exam_file" mapstructure:"last_exam_file"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrLoad         ErrorCode = "LOAD_ERROR"
	ErrSave         ErrorCode = "SAVE_ERROR"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrExport       ErrorCode = "EXPORT_ERROR"
	ErrFont         ErrorCode = "FONT_ERROR"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if ae, ok := err.(*AppError); ok {
			return ae.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
