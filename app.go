package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paperify/internal/config"
	"paperify/internal/exam"
	"paperify/internal/history"
	"paperify/internal/layout"
	"paperify/internal/logger"
	"paperify/internal/pdf"
	"paperify/internal/rtl"
	"paperify/internal/store"
	"paperify/internal/types"
)

// App is the application controller.
// It owns the open exam document and wires the document model, CSV store,
// layout engine, PDF backend and export history together.
type App struct {
	ctx     context.Context
	config  *config.ConfigManager
	store   *store.Store
	history *history.Manager
	workDir string

	// Open document
	doc     *exam.Exam
	docPath string
	docMu   sync.RWMutex

	// Cancellation support
	cancelFunc context.CancelFunc
	cancelMu   sync.Mutex
}

// NewApp creates a new App. Dependencies are set up by startup.
func NewApp() *App {
	return &App{}
}

// NewAppWithConfig creates a new App with a custom config path.
// This is useful for testing or when a specific configuration location is needed.
func NewAppWithConfig(configPath string) (*App, error) {
	app := &App{}
	if configPath == "" {
		app.config = defaultConfigManager()
		return app, nil
	}

	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	app.config = configMgr

	return app, nil
}

// defaultConfigManager opens the per-user config, or one under the system
// temp directory when there is no home directory.
func defaultConfigManager() *config.ConfigManager {
	cm, err := config.NewConfigManager("")
	if err == nil {
		return cm
	}
	fallback := filepath.Join(os.TempDir(), "paperify", config.DefaultConfigFileName)
	logger.Warn("no user config directory, using fallback", logger.Err(err), logger.String("path", fallback))
	// An explicit path never fails.
	cm, _ = config.NewConfigManager(fallback)
	return cm
}

// startup is called when the app starts. The context is saved and used as
// the parent of every export.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		a.config = defaultConfigManager()
	}

	if err := a.config.Load(); err != nil {
		// Continue with defaults if config load fails
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}
	cfg := a.config.GetConfig()

	a.workDir = cfg.WorkDirectory
	if a.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			a.workDir = wd
		}
	}

	a.store = store.New(cfg.BackupDir, cfg.BackupKeep)
	logger.Debug("store initialized",
		logger.String("backupDir", cfg.BackupDir),
		logger.Int("backupKeep", cfg.BackupKeep))

	historyMgr, err := history.NewManager(cfg.HistoryDir)
	if err != nil {
		logger.Warn("failed to initialize export history", logger.Err(err))
	} else {
		a.history = historyMgr
		logger.Debug("history initialized", logger.String("baseDir", historyMgr.GetBaseDir()))
	}

	logger.Info("application startup complete", logger.String("workDir", a.workDir))
}

// shutdown cancels a running export.
func (a *App) shutdown(ctx context.Context) {
	logger.Info("application shutting down")
	a.CancelExport()
	logger.Info("application shutdown complete")
}

// GetConfig returns the current configuration.
func (a *App) GetConfig() *types.Config {
	if a.config == nil {
		return nil
	}
	return a.config.GetConfig()
}

// ensureStarted lazily starts the app for callers that skipped startup.
func (a *App) ensureStarted() {
	if a.store == nil {
		a.startup(context.Background())
	}
}

// NewExam replaces the open document with an empty one.
func (a *App) NewExam(meta exam.Metadata) error {
	doc, err := exam.New(meta)
	if err != nil {
		return types.NewAppError(types.ErrValidation, "invalid exam header", err)
	}

	a.docMu.Lock()
	a.doc = doc
	a.docPath = ""
	a.docMu.Unlock()

	logger.Info("new exam created",
		logger.String("subject", meta.Subject),
		logger.String("class", meta.Class))
	return nil
}

// Exam returns a copy of the open document, or nil if none is open.
func (a *App) Exam() *exam.Exam {
	a.docMu.RLock()
	defer a.docMu.RUnlock()
	if a.doc == nil {
		return nil
	}
	return a.doc.Clone()
}

// ExamPath returns the file the open document was loaded from or saved to.
func (a *App) ExamPath() string {
	a.docMu.RLock()
	defer a.docMu.RUnlock()
	return a.docPath
}

// edit runs fn against the open document under the write lock.
func (a *App) edit(fn func(doc *exam.Exam) error) error {
	a.docMu.Lock()
	defer a.docMu.Unlock()
	if a.doc == nil {
		return types.NewAppError(types.ErrValidation, "no exam is open", nil)
	}
	if err := fn(a.doc); err != nil {
		return types.NewAppError(types.ErrValidation, "edit rejected", err)
	}
	return nil
}

// AddSection appends a section and returns its index.
func (a *App) AddSection(name, desc string, marksPerQuestion, attemptCount int) (int, error) {
	idx := -1
	err := a.edit(func(doc *exam.Exam) error {
		s, err := exam.NewSection(name, desc, marksPerQuestion, attemptCount)
		if err != nil {
			return err
		}
		idx = doc.AddSection(s)
		return nil
	})
	return idx, err
}

// SetSectionMarking changes the marking scheme of a section.
func (a *App) SetSectionMarking(section, marksPerQuestion, attemptCount int) error {
	return a.edit(func(doc *exam.Exam) error {
		s, err := doc.Section(section)
		if err != nil {
			return err
		}
		return s.SetMarking(marksPerQuestion, attemptCount)
	})
}

// RemoveSection deletes a section with all its questions.
func (a *App) RemoveSection(section int) error {
	return a.edit(func(doc *exam.Exam) error {
		return doc.RemoveSection(section)
	})
}

// AddQuestion appends q to a section and returns its index.
func (a *App) AddQuestion(section int, q exam.Question) (int, error) {
	idx := -1
	err := a.edit(func(doc *exam.Exam) error {
		s, err := doc.Section(section)
		if err != nil {
			return err
		}
		idx, err = s.AddQuestion(q)
		return err
	})
	return idx, err
}

// ReplaceQuestion overwrites a question in place.
func (a *App) ReplaceQuestion(section, index int, q exam.Question) error {
	return a.edit(func(doc *exam.Exam) error {
		s, err := doc.Section(section)
		if err != nil {
			return err
		}
		return s.ReplaceQuestion(index, q)
	})
}

// RemoveQuestion deletes a question.
func (a *App) RemoveQuestion(section, index int) error {
	return a.edit(func(doc *exam.Exam) error {
		s, err := doc.Section(section)
		if err != nil {
			return err
		}
		return s.RemoveQuestion(index)
	})
}

// Outline returns the structure preview of the open document.
func (a *App) Outline() []string {
	a.docMu.RLock()
	defer a.docMu.RUnlock()
	if a.doc == nil {
		return nil
	}
	return a.doc.Outline()
}

// LoadExam reads the document at path and makes it the open document.
// On any error the previously open document is kept.
func (a *App) LoadExam(path string) error {
	a.ensureStarted()
	logger.Info("loading exam", logger.String("path", path))

	doc, err := a.store.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.NewAppErrorWithDetails(types.ErrFileNotFound, "exam file not found", path, err)
		}
		var pe *store.ParseError
		if errors.As(err, &pe) {
			return types.NewAppErrorWithDetails(types.ErrLoad, "malformed exam file", path, err)
		}
		return types.NewAppErrorWithDetails(types.ErrLoad, "failed to load exam", path, err)
	}

	a.docMu.Lock()
	a.doc = doc
	a.docPath = path
	a.docMu.Unlock()

	a.config.SetLastExamFile(path)
	return nil
}

// RestoreExam puts the newest backup of path back in place and opens it. The
// file being replaced is itself backed up first.
func (a *App) RestoreExam(path string) (store.Backup, error) {
	a.ensureStarted()
	logger.Info("restoring exam", logger.String("path", path))

	doc, b, err := a.store.Restore(path)
	if err != nil {
		if errors.Is(err, store.ErrNoBackup) {
			return store.Backup{}, types.NewAppErrorWithDetails(types.ErrFileNotFound, "no backup to restore", path, err)
		}
		return store.Backup{}, types.NewAppErrorWithDetails(types.ErrLoad, "failed to restore exam", path, err)
	}

	a.docMu.Lock()
	a.doc = doc
	a.docPath = path
	a.docMu.Unlock()

	a.config.SetLastExamFile(path)
	return b, nil
}

// Backups lists the backups kept for path, newest first.
func (a *App) Backups(path string) ([]store.Backup, error) {
	a.ensureStarted()
	backups, err := a.store.Backups().List(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrLoad, "failed to list backups", path, err)
	}
	return backups, nil
}

// SaveExam writes the open document to path. An empty path saves to the
// file the document came from.
func (a *App) SaveExam(path string) error {
	a.ensureStarted()

	a.docMu.Lock()
	defer a.docMu.Unlock()
	if a.doc == nil {
		return types.NewAppError(types.ErrSave, "no exam is open", nil)
	}
	if path == "" {
		path = a.docPath
	}
	if path == "" {
		return types.NewAppError(types.ErrSave, "no destination path", nil)
	}

	if err := a.doc.Validate(); err != nil {
		return types.NewAppError(types.ErrValidation, "exam is not valid", err)
	}
	if err := a.store.Save(path, a.doc); err != nil {
		return types.NewAppErrorWithDetails(types.ErrSave, "failed to save exam", path, err)
	}
	a.docPath = path
	a.config.SetLastExamFile(path)
	return nil
}

// newExporter builds the export pipeline from the current configuration.
func (a *App) newExporter() (*pdf.Exporter, error) {
	cfg := a.config.GetConfig()

	resolver := pdf.NewFontResolver(pdf.FontConfig{
		BodyPath:    cfg.BodyFontPath,
		BoldPath:    cfg.BoldFontPath,
		RTLPath:     cfg.RTLFontPath,
		RTLFamilies: cfg.RTLFontFamilies,
		Dirs:        cfg.FontDirs,
		WorkDir:     a.workDir,
	})
	fonts, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}

	var shaper rtl.Shaper
	if cfg.ShapingEnabled {
		shaper = rtl.ArabicShaper{}
	} else {
		logger.Warn("RTL shaping disabled, Urdu letters will not be joined")
	}

	g := layout.DefaultGeometry()
	g.WrapColumns = a.config.GetWrapColumns()
	g.RTLSizeDelta = a.config.GetRTLSizeDelta()

	engine := layout.NewEngine(g, rtl.NewPolicy(shaper))
	return pdf.NewExporter(engine, pdf.NewWriter(fonts), cfg.ValidateOutput), nil
}

// ExportPDF renders the open document to path. Every attempt, successful
// or not, is recorded in the export history.
func (a *App) ExportPDF(path string) (*pdf.Result, error) {
	a.ensureStarted()

	doc := a.Exam()
	if doc == nil {
		return nil, types.NewAppError(types.ErrExport, "no exam is open", nil)
	}
	source := a.ExamPath()
	start := time.Now()

	if err := doc.Validate(); err != nil {
		a.recordFailure(doc.Meta, source, path, history.StageValidate, err)
		return nil, types.NewAppError(types.ErrValidation, "exam is not valid", err)
	}

	exporter, err := a.newExporter()
	if err != nil {
		a.recordFailure(doc.Meta, source, path, history.StageFonts, err)
		return nil, types.NewAppError(types.ErrFont, "failed to resolve fonts", err)
	}

	ctx, cancel := a.exportContext()
	defer a.clearCancel(cancel)

	result, err := exporter.Export(ctx, doc, path)
	if err != nil {
		stage, code := classifyExportError(err)
		a.recordFailure(doc.Meta, source, path, stage, err)
		return nil, types.NewAppErrorWithDetails(code, "export failed", path, err)
	}

	if a.history != nil {
		if _, err := a.history.RecordSuccess(doc.Meta.Subject, doc.Meta.Class, source, result.Path, result.Pages); err != nil {
			logger.Warn("failed to record export", logger.Err(err))
		}
	}
	logger.Info("export complete",
		logger.String("path", result.Path),
		logger.Int("pages", result.Pages),
		logger.String("elapsed", time.Since(start).String()))
	return result, nil
}

// ExportExamFile opens source and exports it to path. A document that fails
// to load is journaled as a failed export at the load stage.
func (a *App) ExportExamFile(source, path string) (*pdf.Result, error) {
	if err := a.LoadExam(source); err != nil {
		a.recordFailure(exam.Metadata{}, source, path, history.StageLoad, err)
		return nil, err
	}
	return a.ExportPDF(path)
}

// CancelExport cancels the running export, if any.
func (a *App) CancelExport() {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	if a.cancelFunc != nil {
		logger.Info("cancelling export")
		a.cancelFunc()
		a.cancelFunc = nil
	}
}

func (a *App) exportContext() (context.Context, context.CancelFunc) {
	parent := a.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	a.cancelMu.Lock()
	a.cancelFunc = cancel
	a.cancelMu.Unlock()
	return ctx, cancel
}

func (a *App) clearCancel(cancel context.CancelFunc) {
	cancel()
	a.cancelMu.Lock()
	a.cancelFunc = nil
	a.cancelMu.Unlock()
}

// classifyExportError maps a pdf package failure to the history stage it
// happened in and the application error code reported for it.
func classifyExportError(err error) (history.Stage, types.ErrorCode) {
	var pe *pdf.PDFError
	if !errors.As(err, &pe) {
		return history.StageWrite, types.ErrExport
	}
	switch pe.Code {
	case pdf.ErrFontMissing:
		return history.StageFonts, types.ErrFont
	case pdf.ErrPDFInvalid:
		return history.StageVerify, types.ErrExport
	case pdf.ErrInternal:
		return history.StageWrite, types.ErrInternal
	default:
		return history.StageWrite, types.ErrExport
	}
}

func (a *App) recordFailure(meta exam.Metadata, source, path string, stage history.Stage, cause error) {
	logger.Error("export failed", cause,
		logger.String("path", path),
		logger.String("stage", string(stage)))
	if a.history == nil {
		return
	}
	if _, err := a.history.RecordFailure(meta.Subject, meta.Class, source, path, stage, cause); err != nil {
		logger.Warn("failed to record export failure", logger.Err(err))
	}
}

// InspectPDF reads an exported PDF back.
func (a *App) InspectPDF(path string) (*pdf.PDFInfo, error) {
	info, err := pdf.Inspect(path)
	if err != nil {
		var pe *pdf.PDFError
		if errors.As(err, &pe) && pe.Code == pdf.ErrPDFNotFound {
			return nil, types.NewAppErrorWithDetails(types.ErrFileNotFound, "PDF not found", path, err)
		}
		return nil, types.NewAppErrorWithDetails(types.ErrExport, "failed to read PDF", path, err)
	}
	return info, nil
}

// GetHistory returns the export history, newest first.
func (a *App) GetHistory() []*history.Record {
	if a.history == nil {
		return nil
	}
	return a.history.List()
}

// GetFailedExports returns the failed exports, newest first.
func (a *App) GetFailedExports() []*history.Record {
	if a.history == nil {
		return nil
	}
	return a.history.Failed()
}

// ClearHistory empties the export history.
func (a *App) ClearHistory() error {
	if a.history == nil {
		return nil
	}
	return a.history.Clear()
}

// SetRTLFont overrides the RTL font for this session.
func (a *App) SetRTLFont(path string) error {
	a.ensureStarted()
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "invalid font path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return types.NewAppErrorWithDetails(types.ErrFileNotFound, "font file not found", abs, err)
	}
	a.config.SetRTLFontPath(abs)
	return nil
}

// SetBodyFont overrides the body font for this session.
func (a *App) SetBodyFont(path string) error {
	a.ensureStarted()
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "invalid font path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return types.NewAppErrorWithDetails(types.ErrFileNotFound, "font file not found", abs, err)
	}
	a.config.SetBodyFontPath(abs)
	return nil
}
