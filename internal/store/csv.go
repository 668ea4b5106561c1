// Package store persists exam documents in the row-tagged CSV format:
//
//	META,school,test,class,subject,time,marks
//	SEC,name,desc,marksPerQuestion,attemptCount
//	Q,MCQ,text,option1,...,option4
//	Q,Short/Long Question,text
//	Q,Match Columns,text,a1|a2|...,b1|b2|...
//
// Each SEC row is followed by the Q rows of its questions. Files written
// before attempt counts existed have 4-field SEC rows; those load with an
// attempt count of 1.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"paperify/internal/exam"
	"paperify/internal/logger"
)

// Row tags.
const (
	TagMeta     = "META"
	TagSection  = "SEC"
	TagQuestion = "Q"
)

// ParseError reports the first malformed record of a file. Row is the 1-based
// line the record starts on.
type ParseError struct {
	Row int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Read parses a document. It returns either a complete, validated document
// or an error; nothing is applied partially.
func Read(r io.Reader) (*exam.Exam, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		meta    *exam.Metadata
		doc     = &exam.Exam{}
		current *exam.Section
		row     int
	)
	fail := func(format string, args ...any) error {
		return &ParseError{Row: row, Err: fmt.Errorf(format, args...)}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Row: row + 1, Err: err}
		}
		row, _ = cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		switch rec[0] {
		case TagMeta:
			if len(rec) != 7 {
				return nil, fail("META record needs 7 fields, got %d", len(rec))
			}
			if meta != nil {
				return nil, fail("duplicate META record")
			}
			meta = &exam.Metadata{School: rec[1], Title: rec[2], Class: rec[3], Subject: rec[4], Time: rec[5], TotalMarks: rec[6]}

		case TagSection:
			if len(rec) != 4 && len(rec) != 5 {
				return nil, fail("SEC record needs 4 or 5 fields, got %d", len(rec))
			}
			mpq, err := strconv.Atoi(strings.TrimSpace(rec[3]))
			if err != nil {
				return nil, fail("marks per question %q is not a number", rec[3])
			}
			count := 1
			if len(rec) == 5 {
				if count, err = strconv.Atoi(strings.TrimSpace(rec[4])); err != nil {
					return nil, fail("attempt count %q is not a number", rec[4])
				}
			}
			s, err := exam.NewSection(rec[1], rec[2], mpq, count)
			if err != nil {
				return nil, fail("%w", err)
			}
			doc.AddSection(s)
			current = s

		case TagQuestion:
			if current == nil {
				return nil, fail("question before any section")
			}
			q, err := parseQuestion(rec)
			if err != nil {
				return nil, fail("%w", err)
			}
			if _, err := current.AddQuestion(q); err != nil {
				return nil, fail("%w", err)
			}

		default:
			return nil, fail("unknown record tag %q", rec[0])
		}
	}

	if meta == nil {
		return nil, &ParseError{Row: row, Err: fmt.Errorf("missing META record")}
	}
	doc.Meta = *meta
	if err := doc.Validate(); err != nil {
		return nil, &ParseError{Row: row, Err: err}
	}
	return doc, nil
}

func parseQuestion(rec []string) (exam.Question, error) {
	if len(rec) < 3 {
		return nil, fmt.Errorf("Q record needs at least 3 fields, got %d", len(rec))
	}
	kind, err := exam.ParseKind(rec[1])
	if err != nil {
		return nil, err
	}

	switch kind {
	case exam.KindMultipleChoice:
		if len(rec) > 3+exam.MaxOptions {
			return nil, fmt.Errorf("%w: got %d", exam.ErrTooManyOptions, len(rec)-3)
		}
		return &exam.MultipleChoice{Text: rec[2], Options: append([]string(nil), rec[3:]...)}, nil
	case exam.KindMatchColumns:
		if len(rec) != 5 {
			return nil, fmt.Errorf("Match Columns record needs 5 fields, got %d", len(rec))
		}
		return &exam.MatchColumns{Text: rec[2], ColumnA: splitColumn(rec[3]), ColumnB: splitColumn(rec[4])}, nil
	default:
		if len(rec) != 3 {
			return nil, fmt.Errorf("%s record needs 3 fields, got %d", kind, len(rec))
		}
		return &exam.ShortAnswer{Text: rec[2]}, nil
	}
}

// splitColumn maps the empty string to an empty column.
func splitColumn(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, exam.ColumnSeparator)
}

// Write serializes e. Section and question order are preserved.
func Write(w io.Writer, e *exam.Exam) error {
	cw := csv.NewWriter(w)
	m := e.Meta
	if err := cw.Write([]string{TagMeta, m.School, m.Title, m.Class, m.Subject, m.Time, m.TotalMarks}); err != nil {
		return err
	}
	for _, s := range e.Sections {
		rec := []string{TagSection, s.Name, s.Description, strconv.Itoa(s.MarksPerQuestion), strconv.Itoa(s.AttemptCount)}
		if err := cw.Write(rec); err != nil {
			return err
		}
		for _, q := range s.Questions {
			if err := cw.Write(questionRecord(q)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func questionRecord(q exam.Question) []string {
	rec := []string{TagQuestion, string(q.Kind()), q.Prompt()}
	switch q := q.(type) {
	case *exam.MultipleChoice:
		rec = append(rec, q.Options...)
	case *exam.MatchColumns:
		rec = append(rec, strings.Join(q.ColumnA, exam.ColumnSeparator), strings.Join(q.ColumnB, exam.ColumnSeparator))
	}
	return rec
}

// Store loads and saves document files, backing up files it overwrites.
type Store struct {
	backups *BackupManager
	keep    int
}

// New creates a store. keep is the number of backups retained per file;
// zero disables backups.
func New(backupDir string, keep int) *Store {
	return &Store{backups: NewBackupManager(backupDir), keep: keep}
}

// Backups returns the backup manager of the store.
func (s *Store) Backups() *BackupManager {
	return s.backups
}

// Load reads and parses the document at path.
func (s *Store) Load(path string) (*exam.Exam, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, enc, err := parse(raw)
	if err != nil {
		logger.Warn("document rejected", logger.String("path", path), logger.Err(err))
		return nil, err
	}
	logger.Info("document loaded",
		logger.String("path", path),
		logger.String("encoding", enc),
		logger.Int("sections", len(doc.Sections)),
		logger.Int("questions", doc.QuestionCount()))
	return doc, nil
}

func parse(raw []byte) (*exam.Exam, string, error) {
	data, enc, err := Decode(raw)
	if err != nil {
		return nil, "", err
	}
	doc, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, enc, err
	}
	return doc, enc, nil
}

// Restore puts the newest backup of path back in place and returns the
// restored document. A backup that does not parse is refused. The file being
// replaced is backed up first, so restoring again undoes the restore.
func (s *Store) Restore(path string) (*exam.Exam, Backup, error) {
	b, err := s.backups.Latest(path)
	if err != nil {
		return nil, Backup{}, err
	}
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, b, err
	}
	doc, _, err := parse(raw)
	if err != nil {
		return nil, b, fmt.Errorf("backup %s: %w", filepath.Base(b.Path), err)
	}

	if err := s.backupExisting(path); err != nil {
		return nil, b, err
	}
	if err := writeAtomic(path, raw); err != nil {
		return nil, b, err
	}
	logger.Info("document restored",
		logger.String("path", path),
		logger.String("backup", b.Path),
		logger.String("taken", b.Taken.Format("2006-01-02 15:04:05")))
	return doc, b, nil
}

// backupExisting snapshots path when it exists and prunes old backups.
func (s *Store) backupExisting(path string) error {
	if s.keep <= 0 {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if _, err := s.backups.Snapshot(path); err != nil {
		return err
	}
	if _, err := s.backups.Prune(path, s.keep); err != nil {
		logger.Warn("backup cleanup failed", logger.Err(err))
	}
	return nil
}

// Save validates e and writes it to path atomically. An existing file is
// backed up first.
func (s *Store) Save(path string, e *exam.Exam) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Write(&buf, e); err != nil {
		return err
	}

	if err := s.backupExisting(path); err != nil {
		return err
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("document saved", logger.String("path", path), logger.Int("bytes", buf.Len()))
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".paperify-*.csv")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
