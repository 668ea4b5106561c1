// Package history keeps a JSON journal of PDF exports, successful or not.
package history

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of an export.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Stage names the export step a failure happened in.
type Stage string

const (
	StageLoad     Stage = "load"
	StageValidate Stage = "validate"
	StageFonts    Stage = "fonts"
	StageWrite    Stage = "write"
	StageVerify   Stage = "verify"
)

// Record is one journal entry.
type Record struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Class      string    `json:"class,omitempty"`
	SourcePath string    `json:"source_path,omitempty"` // CSV the document was loaded from
	PDFPath    string    `json:"pdf_path"`
	Pages      int       `json:"pages,omitempty"`
	MD5        string    `json:"md5,omitempty"` // MD5 of the exported PDF
	Status     Status    `json:"status"`
	Stage      Stage     `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const journalFile = "history.json"

// Manager owns the journal file.
type Manager struct {
	baseDir string
	mu      sync.RWMutex
	records []*Record
}

// NewManager opens the journal in baseDir, creating the directory if needed.
// If baseDir is empty, ~/.paperify/history is used.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".paperify", "history")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	m := &Manager{baseDir: baseDir}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetBaseDir returns the journal directory.
func (m *Manager) GetBaseDir() string {
	return m.baseDir
}

// Append stores r, filling in ID and CreatedAt when unset, and returns a copy
// of the stored record.
func (m *Manager) Append(r Record) (*Record, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Status == "" {
		r.Status = StatusCompleted
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := r
	m.records = append(m.records, &stored)
	if err := m.save(); err != nil {
		m.records = m.records[:len(m.records)-1]
		return nil, err
	}
	return &r, nil
}

// RecordSuccess journals a completed export and fingerprints the PDF.
func (m *Manager) RecordSuccess(subject, class, sourcePath, pdfPath string, pages int) (*Record, error) {
	sum, err := CalculateFileMD5(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", pdfPath, err)
	}
	return m.Append(Record{
		Subject:    subject,
		Class:      class,
		SourcePath: sourcePath,
		PDFPath:    pdfPath,
		Pages:      pages,
		MD5:        sum,
		Status:     StatusCompleted,
	})
}

// RecordFailure journals a failed export.
func (m *Manager) RecordFailure(subject, class, sourcePath, pdfPath string, stage Stage, cause error) (*Record, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return m.Append(Record{
		Subject:    subject,
		Class:      class,
		SourcePath: sourcePath,
		PDFPath:    pdfPath,
		Status:     StatusFailed,
		Stage:      stage,
		Error:      msg,
	})
}

// List returns copies of all records, newest first.
func (m *Manager) List() []*Record {
	return m.filter(func(*Record) bool { return true })
}

// Failed returns copies of the failed records, newest first.
func (m *Manager) Failed() []*Record {
	return m.filter(func(r *Record) bool { return r.Status == StatusFailed })
}

func (m *Manager) filter(keep func(*Record) bool) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns a copy of the record with the given ID.
func (m *Manager) Get(id string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			c := *r
			return &c, true
		}
	}
	return nil, false
}

// FindByMD5 returns the newest completed export with the given fingerprint.
func (m *Manager) FindByMD5(sum string) (*Record, bool) {
	for _, r := range m.List() {
		if r.Status == StatusCompleted && r.MD5 == sum {
			return r, true
		}
	}
	return nil, false
}

// Clear removes every record.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return m.save()
}

func (m *Manager) load() error {
	data, err := os.ReadFile(filepath.Join(m.baseDir, journalFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}

	if err := json.Unmarshal(data, &m.records); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return nil
}

func (m *Manager) save() error {
	records := m.records
	if records == nil {
		records = []*Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.baseDir, journalFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// CalculateFileMD5 calculates the MD5 hash of a file
func CalculateFileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// GetStageDisplayName returns a human readable stage name.
func GetStageDisplayName(stage Stage) string {
	switch stage {
	case StageLoad:
		return "Loading document"
	case StageValidate:
		return "Validating document"
	case StageFonts:
		return "Resolving fonts"
	case StageWrite:
		return "Writing PDF"
	case StageVerify:
		return "Verifying PDF"
	default:
		return string(stage)
	}
}
