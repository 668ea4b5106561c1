package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"paperify/internal/exam"
	"paperify/internal/layout"
	"paperify/internal/logger"
)

// Exporter runs the full pipeline from document to PDF file on disk.
type Exporter struct {
	engine   *layout.Engine
	writer   *Writer
	conf     *model.Configuration
	validate bool
}

// NewExporter creates an exporter. With validate set, every file is checked
// with pdfcpu before it replaces the destination.
func NewExporter(engine *layout.Engine, writer *Writer, validate bool) *Exporter {
	return &Exporter{
		engine:   engine,
		writer:   writer,
		conf:     model.NewDefaultConfiguration(),
		validate: validate,
	}
}

// Export lays out ex and writes it to path. The PDF is produced in a
// temporary file next to path and renamed into place only once it is
// complete, so a failed export never leaves a partial file behind. A panic
// in layout or drawing is returned as an ErrInternal PDFError.
func (x *Exporter) Export(ctx context.Context, ex *exam.Exam, path string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("export panicked", nil, logger.Any("panic", r), logger.String("path", path))
			res, err = nil, NewPDFErrorWithDetails(ErrInternal, "export aborted", fmt.Sprint(r), nil)
		}
	}()

	start := time.Now()
	pages := x.engine.Layout(ex)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewPDFErrorWithDetails(ErrWriteFailed, "failed to create output directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".paperify-*.pdf")
	if err != nil {
		return nil, NewPDFErrorWithDetails(ErrWriteFailed, "failed to create output file", path, err)
	}
	tmpPath := tmp.Name()
	done := false
	defer func() {
		if !done {
			os.Remove(tmpPath)
		}
	}()
	defer tmp.Close()

	writeErr := x.writer.Write(ctx, pages, ex.Meta, tmp)
	closeErr := tmp.Close()
	if writeErr != nil {
		return nil, writeErr
	}
	if closeErr != nil {
		return nil, NewPDFError(ErrWriteFailed, "failed to flush output file", closeErr)
	}

	count, err := x.check(tmpPath)
	if err != nil {
		return nil, err
	}
	if count != len(pages) {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "page count mismatch",
			fmt.Sprintf("laid out %d, file has %d", len(pages), count), nil)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return nil, NewPDFErrorWithDetails(ErrWriteFailed, "failed to move output into place", path, err)
	}
	done = true

	info, err := os.Stat(path)
	if err != nil {
		return nil, NewPDFError(ErrPDFNotFound, "exported file disappeared", err)
	}

	out := &Result{Path: path, Pages: count, Size: info.Size(), Duration: time.Since(start)}
	logger.Info("pdf exported",
		logger.String("path", path),
		logger.Int("pages", out.Pages),
		logger.Any("size", out.Size),
		logger.Any("duration", out.Duration))
	return out, nil
}

// check validates the file and returns its page count.
func (x *Exporter) check(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, NewPDFError(ErrPDFNotFound, "generated file missing", err)
	}
	if info.Size() == 0 {
		return 0, NewPDFError(ErrGenerateFailed, "generated file is empty", nil)
	}
	if x.validate {
		if err := api.ValidateFile(path, x.conf); err != nil {
			return 0, NewPDFError(ErrPDFInvalid, "generated file failed validation", err)
		}
	}
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, NewPDFError(ErrPDFInvalid, "failed to read generated file", err)
	}
	return ctx.PageCount, nil
}
