package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/quick"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"paperify/internal/exam"
)

func sampleExam(t *testing.T) *exam.Exam {
	t.Helper()
	e, err := exam.New(exam.Metadata{School: "Govt. High School, Lahore", Title: "Annual \"Final\"", Class: "10", Subject: "اردو", Time: "3h", TotalMarks: "100"})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := exam.NewSection("Section A", "Choose the correct option", 1, 10)
	a.AddQuestion(&exam.MultipleChoice{Text: "پاکستان کا دارالحکومت؟", Options: []string{"لاہور", "اسلام آباد", "کراچی", "کوئٹہ"}})
	a.AddQuestion(&exam.MultipleChoice{Text: "2 + 2 = ?", Options: []string{"3", "4"}})
	b, _ := exam.NewSection("Section B", "Attempt any 3", 5, 3)
	b.AddQuestion(&exam.ShortAnswer{Text: "Write a note on:\n(a) Allama Iqbal"})
	b.AddQuestion(&exam.MatchColumns{Text: "Match the following", ColumnA: []string{"H2O", "NaCl", "CO2"}, ColumnB: []string{"Salt"}})
	b.AddQuestion(&exam.MatchColumns{ColumnA: []string{"x"}})
	e.AddSection(a)
	e.AddSection(b)
	return e
}

// equalContent compares documents treating nil and empty lists alike.
func equalContent(a, b *exam.Exam) bool {
	var wa, wb bytes.Buffer
	Write(&wa, a)
	Write(&wb, b)
	return wa.String() == wb.String()
}

func TestRoundTrip(t *testing.T) {
	e := sampleExam(t)
	var buf bytes.Buffer
	if err := Write(&buf, e); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Meta != e.Meta {
		t.Errorf("meta changed: %+v", got.Meta)
	}
	if len(got.Sections) != 2 || got.Sections[0].Name != "Section A" || got.Sections[1].Name != "Section B" {
		t.Fatalf("section order lost: %+v", got.Sections)
	}
	for i, s := range e.Sections {
		gs := got.Sections[i]
		if gs.MarksPerQuestion != s.MarksPerQuestion || gs.AttemptCount != s.AttemptCount || gs.TotalMarks() != s.TotalMarks() {
			t.Errorf("section %d marking changed", i)
		}
		if len(gs.Questions) != len(s.Questions) {
			t.Fatalf("section %d: %d questions, want %d", i, len(gs.Questions), len(s.Questions))
		}
		for j, q := range s.Questions {
			if gs.Questions[j].Kind() != q.Kind() || gs.Questions[j].Prompt() != q.Prompt() {
				t.Errorf("question %d.%d changed: %+v", i, j, gs.Questions[j])
			}
		}
	}
	mcq := got.Sections[0].Questions[0].(*exam.MultipleChoice)
	if !reflect.DeepEqual(mcq.Options, []string{"لاہور", "اسلام آباد", "کراچی", "کوئٹہ"}) {
		t.Errorf("options changed: %q", mcq.Options)
	}
	match := got.Sections[1].Questions[1].(*exam.MatchColumns)
	if !reflect.DeepEqual(match.ColumnA, []string{"H2O", "NaCl", "CO2"}) || !reflect.DeepEqual(match.ColumnB, []string{"Salt"}) {
		t.Errorf("columns changed: %q %q", match.ColumnA, match.ColumnB)
	}
	if empty := got.Sections[1].Questions[2].(*exam.MatchColumns); len(empty.ColumnB) != 0 {
		t.Errorf("empty column should load empty, got %q", empty.ColumnB)
	}
}

func TestProperty_TotalMarksSurvivesReload(t *testing.T) {
	f := func(m, n uint8) bool {
		e, _ := exam.New(exam.Metadata{Class: "1", Subject: "Math"})
		s, _ := exam.NewSection("S", "", int(m)+1, int(n)+1)
		e.AddSection(s)

		var buf bytes.Buffer
		if Write(&buf, e) != nil {
			return false
		}
		got, err := Read(&buf)
		if err != nil {
			return false
		}
		gs := got.Sections[0]
		return gs.TotalMarks() == (int(m)+1)*(int(n)+1) && equalContent(e, got)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestRead_LegacySectionRecord(t *testing.T) {
	in := "META,School,Test,5,Math,1h,50\nSEC,\"Section A\",\"Attempt any 3\",5\nQ,Short/Long Question,What is a prime?\n"
	e, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	s := e.Sections[0]
	if s.AttemptCount != 1 || s.TotalMarks() != 5 {
		t.Errorf("legacy section: attempt %d, total %d", s.AttemptCount, s.TotalMarks())
	}
}

func TestRead_Malformed(t *testing.T) {
	const meta = "META,S,T,5,Math,1h,50\n"
	tests := []struct {
		name string
		in   string
		row  int
		want error
	}{
		{"short meta", "META,S,T,5\n", 1, nil},
		{"duplicate meta", meta + meta, 2, nil},
		{"missing meta", "SEC,A,d,1,1\n", 1, nil},
		{"meta without class", "META,S,T,,Math,1h,50\n", 1, exam.ErrMissingClass},
		{"marks not a number", meta + "SEC,A,d,two,1\n", 2, nil},
		{"attempt not a number", meta + "SEC,A,d,2,x\n", 2, nil},
		{"zero marks", meta + "SEC,A,d,0,1\n", 2, exam.ErrNonPositiveMarks},
		{"negative attempt", meta + "SEC,A,d,1,-1\n", 2, exam.ErrNonPositiveCount},
		{"sec too long", meta + "SEC,A,d,1,1,9\n", 2, nil},
		{"question before section", meta + "Q,MCQ,text,a\n", 2, nil},
		{"unknown question type", meta + "SEC,A,d,1,1\nQ,Essay,text\n", 3, nil},
		{"five options", meta + "SEC,A,d,1,1\nQ,MCQ,text,1,2,3,4,5\n", 3, exam.ErrTooManyOptions},
		{"match missing column", meta + "SEC,A,d,1,1\nQ,Match Columns,text,a|b\n", 3, nil},
		{"short with extra field", meta + "SEC,A,d,1,1\nQ,Short/Long Question,text,extra\n", 3, nil},
		{"empty question", meta + "SEC,A,d,1,1\nQ,Short/Long Question,\n", 3, exam.ErrEmptyQuestion},
		{"unknown tag", meta + "XYZ,1\n", 2, nil},
		{"broken quoting", meta + "SEC,\"A,d,1,1\n", 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Row != tt.row {
				t.Errorf("row = %d, want %d (%v)", perr.Row, tt.row, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error %v does not wrap %v", err, tt.want)
			}
		})
	}
}

func TestStore_LoadEncodings(t *testing.T) {
	const doc = "META,مدرسة,Test,5,Math,1h,50\nSEC,A,d,2,2\nQ,Short/Long Question,What is 2+2?\n"
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(doc)
	if err != nil {
		t.Fatal(err)
	}
	cp1256, err := charmap.Windows1256.NewEncoder().String(doc)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data string
		enc  string
	}{
		{"utf8", doc, EncodingUTF8},
		{"utf8 bom", "\xEF\xBB\xBF" + doc, EncodingUTF8BOM},
		{"utf16le bom", utf16, EncodingUTF16LE},
		{"windows-1256", cp1256, EncodingWindows1256},
	}
	s := New("", 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectEncoding([]byte(tt.data)); got != tt.enc {
				t.Errorf("DetectEncoding = %s, want %s", got, tt.enc)
			}
			path := filepath.Join(t.TempDir(), "exam.csv")
			os.WriteFile(path, []byte(tt.data), 0644)
			e, err := s.Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if e.Meta.School != "مدرسة" || e.Sections[0].TotalMarks() != 4 {
				t.Errorf("unexpected document %+v", e.Meta)
			}
		})
	}
}

func TestStore_SaveBacksUpAndPrunes(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	s := New(backupDir, 2)
	path := filepath.Join(dir, "exam.csv")
	e := sampleExam(t)

	for i := 0; i < 4; i++ {
		if err := s.Save(path, e); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}
	backups, err := s.Backups().List(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("expected 2 backups kept, got %d", len(backups))
	}

	loaded, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !equalContent(e, loaded) {
		t.Error("saved document differs after load")
	}

	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".paperify-") {
			t.Errorf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestStore_RestoreLatestBackup(t *testing.T) {
	dir := t.TempDir()
	s := New("", 5)
	path := filepath.Join(dir, "exam.csv")
	first := sampleExam(t)
	if err := s.Save(path, first); err != nil {
		t.Fatal(err)
	}
	second := sampleExam(t)
	second.Meta.School = "Changed"
	if err := s.Save(path, second); err != nil {
		t.Fatal(err)
	}

	doc, b, err := s.Restore(path)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if b.Path == "" || !equalContent(doc, first) {
		t.Errorf("restored the wrong document from %s: %+v", b.Path, doc.Meta)
	}
	if loaded, err := s.Load(path); err != nil || !equalContent(loaded, first) {
		t.Errorf("file on disk is not the restored document: %v", err)
	}

	// the replaced version was backed up, so restoring again brings it back
	doc, _, err = s.Restore(path)
	if err != nil || doc.Meta.School != "Changed" {
		t.Errorf("second restore = %+v, %v", doc, err)
	}
}

func TestStore_RestoreRefusesBrokenBackup(t *testing.T) {
	dir := t.TempDir()
	s := New("", 5)
	path := filepath.Join(dir, "exam.csv")
	if _, _, err := s.Restore(path); !errors.Is(err, ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}

	os.WriteFile(path, []byte("SEC,no meta,d,1,1\n"), 0644)
	if _, err := s.Backups().Snapshot(path); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(path, sampleExam(t)); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	if _, _, err := s.Restore(path); err == nil {
		t.Fatal("expected a malformed backup to be refused")
	}
	if after, _ := os.ReadFile(path); string(after) != string(before) {
		t.Error("refused restore changed the file")
	}
}

func TestStore_SaveRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exam.csv")
	bad := &exam.Exam{Meta: exam.Metadata{Class: "5"}}
	if err := New("", 0).Save(path, bad); !errors.Is(err, exam.ErrMissingSubject) {
		t.Errorf("expected ErrMissingSubject, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid document was written")
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	if _, err := New("", 0).Load(filepath.Join(t.TempDir(), "nope.csv")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
