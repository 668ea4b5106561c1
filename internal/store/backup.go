package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"paperify/internal/logger"
)

// backupStamp sorts lexically in time order.
const backupStamp = "20060102_150405.000000000"

const backupInfix = ".backup_"

// ErrNoBackup is returned when a document has never been backed up.
var ErrNoBackup = errors.New("no backup found")

// Backup is one saved copy of a document file.
type Backup struct {
	Path  string
	Taken time.Time
}

// BackupManager keeps timestamped copies of document files before they are
// overwritten.
type BackupManager struct {
	backupDir string
}

// NewBackupManager creates a new BackupManager.
// If backupDir is empty, backups are created next to the original file.
func NewBackupManager(backupDir string) *BackupManager {
	return &BackupManager{
		backupDir: backupDir,
	}
}

func (m *BackupManager) dirFor(path string) string {
	if m.backupDir != "" {
		return m.backupDir
	}
	return filepath.Dir(path)
}

// Snapshot copies the current content of path into a new backup.
func (m *BackupManager) Snapshot(path string) (Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Backup{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	dir := m.dirFor(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Backup{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := time.Now()
	b := Backup{
		Path:  filepath.Join(dir, filepath.Base(path)+backupInfix+now.Format(backupStamp)),
		Taken: now,
	}
	if err := os.WriteFile(b.Path, data, 0644); err != nil {
		return Backup{}, fmt.Errorf("failed to write backup: %w", err)
	}

	logger.Debug("backup created", logger.String("path", path), logger.String("backup", b.Path))
	return b, nil
}

// List returns the backups of path, newest first. Files whose stamp does not
// parse are ignored.
func (m *BackupManager) List(path string) ([]Backup, error) {
	dir := m.dirFor(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	prefix := filepath.Base(path) + backupInfix
	var backups []Backup
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		taken, err := time.ParseInLocation(backupStamp, strings.TrimPrefix(name, prefix), time.Local)
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Path: filepath.Join(dir, name), Taken: taken})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].Taken.After(backups[j].Taken) })
	return backups, nil
}

// Latest returns the newest backup of path, or ErrNoBackup.
func (m *BackupManager) Latest(path string) (Backup, error) {
	backups, err := m.List(path)
	if err != nil {
		return Backup{}, err
	}
	if len(backups) == 0 {
		return Backup{}, fmt.Errorf("%s: %w", path, ErrNoBackup)
	}
	return backups[0], nil
}

// Prune removes all but the keep newest backups of path and returns how many
// were removed.
func (m *BackupManager) Prune(path string, keep int) (int, error) {
	backups, err := m.List(path)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			logger.Warn("failed to remove backup", logger.Err(err), logger.String("path", backups[i].Path))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Debug("backups pruned", logger.String("path", path), logger.Int("removed", removed))
	}
	return removed, nil
}
