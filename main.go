package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"paperify/internal/config"
	"paperify/internal/exam"
	"paperify/internal/history"
	"paperify/internal/logger"
	"paperify/internal/pdf"
)

// Command line flags
var (
	fileFlag    = flag.String("file", "", "Exam CSV file to open")
	initFlag    = flag.String("init", "", "Create a new exam CSV file")
	inspectFlag = flag.String("inspect", "", "Exported PDF file to read back")
	outlineFlag = flag.String("outline", "", "Exam CSV file to print the outline of")
	historyFlag = flag.Bool("history", false, "List past exports")
	restoreFlag = flag.String("restore", "", "Exam CSV file to restore from its newest backup")
	pdfFlag     = flag.String("pdf", "", "Export the exam to this PDF file")
	configFlag  = flag.String("config", "", "Config file path")

	// Header fields for -init
	schoolFlag  = flag.String("school", "", "School name")
	testFlag    = flag.String("test", "", "Test title")
	classFlag   = flag.String("class", "", "Class (required with -init)")
	subjectFlag = flag.String("subject", "", "Subject (required with -init)")
	timeFlag    = flag.String("time", "", "Allowed time")
	marksFlag   = flag.String("marks", "", "Total marks")

	// Editing
	sectionFlag  = flag.String("add-section", "", "Append a section with this title")
	descFlag     = flag.String("desc", "", "Section instructions")
	perFlag      = flag.Int("per", 1, "Marks per question of the new section")
	countFlag    = flag.Int("count", 1, "Questions to attempt in the new section")
	questionFlag = flag.String("add-question", "", "Append a question with this text")
	kindFlag     = flag.String("kind", string(exam.KindShortAnswer), "Question kind: \"Short/Long Question\", MCQ or \"Match Columns\"")
	optionsFlag  = flag.String("options", "", "MCQ options separated by ';'")
	colAFlag     = flag.String("col-a", "", "Column A entries separated by '|'")
	colBFlag     = flag.String("col-b", "", "Column B entries separated by '|'")
	toFlag       = flag.Int("to", 0, "1-based section the question is added to (0 = last)")

	setMarkingFlag      = flag.String("set-marking", "", "Change a section's marking: SECTION:MARKS:COUNT")
	replaceQuestionFlag = flag.String("replace-question", "", "Replace question SECTION.QUESTION with -text")
	textFlag            = flag.String("text", "", "Question text for -replace-question")
	removeQuestionFlag  = flag.String("remove-question", "", "Remove question SECTION.QUESTION")
	removeSectionFlag   = flag.Int("remove-section", 0, "Remove a section (1-based)")

	// Rendering
	fontFlag     = flag.String("font", "", "Urdu/Arabic TrueType font file")
	bodyFontFlag = flag.String("body-font", "", "Latin body TrueType font file")
	wrapFlag     = flag.Int("wrap", 0, "Characters per question line (0 = configured)")
	logFlag      = flag.String("log", "", "Log file path")
	verboseFlag  = flag.Bool("v", false, "Verbose logging")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("Paperify - exam paper PDF generator with Urdu/English text")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  paperify [options]")
	fmt.Println()
	fmt.Println("Modes (pick one):")
	fmt.Println("  -init <CSV>          create a new exam (needs -class and -subject)")
	fmt.Println("  -file <CSV>          open an exam to edit or export")
	fmt.Println("  -outline <CSV>       print the section/question outline")
	fmt.Println("  -inspect <PDF>       read an exported PDF back")
	fmt.Println("  -history             list past exports")
	fmt.Println("  -restore <CSV>       put back the newest backup of an exam")
	fmt.Println()
	fmt.Println("Header (-init):")
	fmt.Println("  -school, -test, -class, -subject, -time, -marks")
	fmt.Println()
	fmt.Println("Editing (-init or -file):")
	fmt.Println("  -add-section <TITLE> [-desc D] [-per N] [-count N]")
	fmt.Println("  -add-question <TEXT> [-kind K] [-options 'a;b;c;d'] [-col-a 'x|y'] [-col-b 'p|q'] [-to N]")
	fmt.Println("  -set-marking S:M:N   section S gets M marks per question, N to attempt")
	fmt.Println("  -replace-question S.Q -text <TEXT> [-kind K] [-options ...]")
	fmt.Println("  -remove-question S.Q, -remove-section S")
	fmt.Println("  Numbers refer to the document as opened; changes and removals run before additions.")
	fmt.Println()
	fmt.Println("Output:")
	fmt.Println("  -pdf <PDF>           export after loading/editing")
	fmt.Println("  -font <TTF>          Urdu/Arabic font (default: JNN.ttf in the working directory)")
	fmt.Println("  -body-font <TTF>     Latin body font")
	fmt.Println("  -wrap <N>            characters per question line")
	fmt.Println("  -config <PATH>       config file")
	fmt.Println("  -log <PATH>, -v      log file and verbose logging")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  paperify -init science.csv -school \"City School\" -class 8 -subject Science -marks 50")
	fmt.Println("  paperify -file science.csv -add-section \"Section A\" -desc \"Attempt all\" -per 1 -count 10")
	fmt.Println("  paperify -file science.csv -add-question \"Capital of Pakistan?\" -kind MCQ -options \"Lahore;Islamabad;Karachi;Quetta\"")
	fmt.Println("  paperify -file science.csv -set-marking 1:2:5 -remove-question 2.3")
	fmt.Println("  paperify -file science.csv -pdf science.pdf -font JNN.ttf")
	fmt.Println("  paperify -restore science.csv")
	fmt.Println("  paperify -inspect science.pdf")
}

// getModeFromFlags returns the selected mode and its argument.
// Returns an error if more than one mode flag is provided.
func getModeFromFlags() (string, string, error) {
	count := 0
	var mode, arg string

	if *initFlag != "" {
		count++
		mode, arg = "init", *initFlag
	}
	if *fileFlag != "" {
		count++
		mode, arg = "file", *fileFlag
	}
	if *outlineFlag != "" {
		count++
		mode, arg = "outline", *outlineFlag
	}
	if *inspectFlag != "" {
		count++
		mode, arg = "inspect", *inspectFlag
	}
	if *historyFlag {
		count++
		mode = "history"
	}
	if *restoreFlag != "" {
		count++
		mode, arg = "restore", *restoreFlag
	}

	if count > 1 {
		return "", "", fmt.Errorf("only one of -init, -file, -outline, -inspect, -history or -restore may be given")
	}
	if count == 0 {
		return "", "", fmt.Errorf("no mode given")
	}
	return mode, arg, nil
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	mode, arg, err := getModeFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Println()
		printHelp()
		os.Exit(1)
	}

	app, err := NewAppWithConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := app.config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
	if err := logger.Init(loggerConfig(app.config, *logFlag, *verboseFlag)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	app.startup(context.Background())
	defer app.shutdown(context.Background())

	if err := applyRenderFlags(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch mode {
	case "init":
		err = runInitCLI(app, arg)
	case "file":
		err = runFileCLI(app, arg)
	case "outline":
		err = runOutlineCLI(app, arg)
	case "inspect":
		err = runInspectCLI(app, arg)
	case "history":
		err = runHistoryCLI(app)
	case "restore":
		err = runRestoreCLI(app, arg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Close()
		os.Exit(1)
	}
}

// loggerConfig builds the logger settings from the configuration. A non-empty
// logPath and verbose override the configured file and level.
func loggerConfig(cm *config.ConfigManager, logPath string, verbose bool) *logger.Config {
	lc := &logger.Config{
		LogFilePath:   cm.GetConfig().LogFile,
		MaxSizeMB:     10,
		MaxBackups:    3,
		Level:         cm.GetLogLevel(),
		EnableConsole: verbose,
	}
	if logPath != "" {
		lc.LogFilePath = logPath
	}
	if verbose {
		lc.Level = logger.LevelDebug
	}
	return lc
}

// applyRenderFlags pushes the font and wrap overrides into the configuration.
func applyRenderFlags(app *App) error {
	if *fontFlag != "" {
		if err := app.SetRTLFont(*fontFlag); err != nil {
			return err
		}
	}
	if *bodyFontFlag != "" {
		if err := app.SetBodyFont(*bodyFontFlag); err != nil {
			return err
		}
	}
	if *wrapFlag > 0 {
		app.config.SetWrapColumns(*wrapFlag)
	}
	return nil
}

// runInitCLI creates a new exam from the header flags, applies edits and saves it.
func runInitCLI(app *App, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, use -file to edit it", path)
	}
	meta := exam.Metadata{
		School:     *schoolFlag,
		Title:      *testFlag,
		Class:      *classFlag,
		Subject:    *subjectFlag,
		Time:       *timeFlag,
		TotalMarks: *marksFlag,
	}
	if err := app.NewExam(meta); err != nil {
		return err
	}
	if err := applyEdits(app, editRequestFromFlags()); err != nil {
		return err
	}
	if err := app.SaveExam(path); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return exportIfRequested(app)
}

// runFileCLI opens an exam, applies edits, saves when anything changed and
// exports when -pdf is given.
func runFileCLI(app *App, path string) error {
	edits := editRequestFromFlags()
	if edits.Empty() && *pdfFlag != "" {
		fmt.Printf("Exporting %s to %s...\n", path, *pdfFlag)
		return printResult(app.ExportExamFile(path, *pdfFlag))
	}

	if err := app.LoadExam(path); err != nil {
		return err
	}
	if !edits.Empty() {
		if err := applyEdits(app, edits); err != nil {
			return err
		}
		if err := app.SaveExam(""); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
	}
	return exportIfRequested(app)
}

func exportIfRequested(app *App) error {
	if *pdfFlag == "" {
		return nil
	}
	fmt.Printf("Exporting to %s...\n", *pdfFlag)
	return printResult(app.ExportPDF(*pdfFlag))
}

func printResult(result *pdf.Result, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d pages, %d bytes) in %s\n", result.Path, result.Pages, result.Size, result.Duration.Round(1e6))
	return nil
}

// runRestoreCLI puts back the newest backup of an exam file.
func runRestoreCLI(app *App, path string) error {
	b, err := app.RestoreExam(path)
	if err != nil {
		return err
	}
	fmt.Printf("Restored %s from %s (%s)\n", path, b.Path, b.Taken.Format("2006-01-02 15:04:05"))

	backups, err := app.Backups(path)
	if err != nil {
		return err
	}
	fmt.Printf("%d backups kept:\n", len(backups))
	for _, k := range backups {
		fmt.Printf("  %s  %s\n", k.Taken.Format("2006-01-02 15:04:05"), k.Path)
	}
	return exportIfRequested(app)
}

// runOutlineCLI prints the structure preview of an exam file.
func runOutlineCLI(app *App, path string) error {
	if err := app.LoadExam(path); err != nil {
		return err
	}
	doc := app.Exam()
	m := doc.Meta
	fmt.Printf("%s - %s\n", m.School, m.Title)
	fmt.Printf("Class: %s  Subject: %s  Time: %s  Marks: %s\n", m.Class, m.Subject, m.Time, m.TotalMarks)
	fmt.Println()
	for _, line := range app.Outline() {
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Printf("%d sections, %d questions, %d marks\n", len(doc.Sections), doc.QuestionCount(), doc.TotalSectionMarks())
	return nil
}

// runInspectCLI prints the page count and text of an exported PDF.
func runInspectCLI(app *App, path string) error {
	info, err := app.InspectPDF(path)
	if err != nil {
		return err
	}
	fmt.Printf("File:  %s\n", info.FilePath)
	fmt.Printf("Pages: %d\n", info.PageCount)
	fmt.Printf("Size:  %d bytes\n", info.FileSize)
	for i, text := range info.PageText {
		fmt.Printf("\n--- Page %d ---\n%s\n", i+1, strings.TrimSpace(text))
	}
	return nil
}

// runHistoryCLI lists past exports, newest first.
func runHistoryCLI(app *App) error {
	records := app.GetHistory()
	if len(records) == 0 {
		fmt.Println("No exports recorded")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-9s  %s (%s)  %s", r.CreatedAt.Format("2006-01-02 15:04"), r.Status, r.Subject, r.Class, r.PDFPath)
		if r.Error != "" {
			line += "  [" + history.GetStageDisplayName(r.Stage) + "] " + r.Error
		}
		fmt.Println(line)
	}
	return nil
}
