package pdf

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"paperify/internal/logger"
)

// RTLConventionFiles are looked up in the working directory when no RTL font
// path is configured.
var RTLConventionFiles = []string{"JNN.ttf", "jnn.ttf"}

// DefaultRTLFamilies is the fallback order of RTL-capable system faces.
var DefaultRTLFamilies = []string{"Arial", "Segoe UI", "Tahoma", "Noto Naskh Arabic", "DejaVu Sans"}

var bodyFamilies = []string{"DejaVu Sans", "Liberation Sans", "Arial", "Noto Sans", "Segoe UI", "Tahoma"}

// familyFiles maps a family name to the regular and bold file names it is
// shipped under on common systems.
var familyFiles = map[string]struct{ regular, bold []string }{
	"Arial":             {[]string{"arial.ttf"}, []string{"arialbd.ttf", "arial bold.ttf"}},
	"Segoe UI":          {[]string{"segoeui.ttf"}, []string{"segoeuib.ttf"}},
	"Tahoma":            {[]string{"tahoma.ttf"}, []string{"tahomabd.ttf"}},
	"Noto Naskh Arabic": {[]string{"notonaskharabic-regular.ttf"}, []string{"notonaskharabic-bold.ttf"}},
	"Noto Sans":         {[]string{"notosans-regular.ttf"}, []string{"notosans-bold.ttf"}},
	"DejaVu Sans":       {[]string{"dejavusans.ttf"}, []string{"dejavusans-bold.ttf"}},
	"Liberation Sans":   {[]string{"liberationsans-regular.ttf"}, []string{"liberationsans-bold.ttf"}},
}

// FontConfig selects where FontResolver looks.
type FontConfig struct {
	BodyPath    string
	BoldPath    string
	RTLPath     string
	RTLFamilies []string
	// Dirs replaces the system font directories when non-empty.
	Dirs    []string
	WorkDir string
}

// FontResolver finds the TrueType files for a FontSet.
type FontResolver struct {
	cfg   FontConfig
	index map[string]string
}

// NewFontResolver creates a resolver. The font directories are scanned lazily
// on the first family lookup.
func NewFontResolver(cfg FontConfig) *FontResolver {
	if len(cfg.Dirs) == 0 {
		cfg.Dirs = SystemFontDirs()
	}
	if len(cfg.RTLFamilies) == 0 {
		cfg.RTLFamilies = DefaultRTLFamilies
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir, _ = os.Getwd()
	}
	return &FontResolver{cfg: cfg}
}

// SystemFontDirs returns the usual font directories of the running OS.
func SystemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		return []string{"/Library/Fonts", "/System/Library/Fonts", "/System/Library/Fonts/Supplemental", filepath.Join(home, "Library", "Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts")}
	}
}

// Resolve returns the font set. A missing body face is an error since the
// PDF needs an embeddable font; a missing RTL face only degrades output.
func (r *FontResolver) Resolve() (FontSet, error) {
	var set FontSet

	set.Body = r.explicit(r.cfg.BodyPath)
	if set.Body == "" {
		set.Body = r.family(bodyFamilies, false)
	}
	if set.Body == "" {
		return FontSet{}, NewPDFErrorWithDetails(ErrFontMissing, "no body font found",
			"set body_font_path or install one of: "+strings.Join(bodyFamilies, ", "), nil)
	}

	set.Bold = r.explicit(r.cfg.BoldPath)
	if set.Bold == "" {
		set.Bold = r.boldFor(set.Body)
	}
	if set.Bold == "" {
		set.Bold = set.Body
	}

	set.RTL = r.ResolveRTL()
	if set.RTL == "" {
		logger.Warn("no RTL font found, Urdu text uses the body font",
			logger.String("body", set.Body))
		set.RTL = set.Body
	}

	logger.Debug("fonts resolved",
		logger.String("body", set.Body),
		logger.String("bold", set.Bold),
		logger.String("rtl", set.RTL))
	return set, nil
}

// ResolveRTL returns the RTL font file: the configured path, then the
// convention file in the working directory, then the family fallback list.
// It returns "" when none exists.
func (r *FontResolver) ResolveRTL() string {
	if p := r.explicit(r.cfg.RTLPath); p != "" {
		return p
	}
	for _, name := range RTLConventionFiles {
		if p := r.explicit(filepath.Join(r.cfg.WorkDir, name)); p != "" {
			return p
		}
	}
	return r.family(r.cfg.RTLFamilies, false)
}

func (r *FontResolver) explicit(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if path != "" && !os.IsNotExist(err) {
			logger.Warn("font path not usable", logger.String("path", path), logger.Err(err))
		}
		return ""
	}
	return path
}

func (r *FontResolver) family(families []string, bold bool) string {
	idx := r.scan()
	for _, fam := range families {
		files, ok := familyFiles[fam]
		if !ok {
			continue
		}
		names := files.regular
		if bold {
			names = files.bold
		}
		for _, name := range names {
			if p, ok := idx[name]; ok {
				return p
			}
		}
	}
	return ""
}

// boldFor picks the bold file of the family body belongs to.
func (r *FontResolver) boldFor(body string) string {
	base := strings.ToLower(filepath.Base(body))
	for fam, files := range familyFiles {
		for _, name := range files.regular {
			if name == base {
				return r.family([]string{fam}, true)
			}
		}
	}
	return ""
}

// scan indexes every .ttf file below the font directories by lower-case
// base name. The first directory wins on duplicates.
func (r *FontResolver) scan() map[string]string {
	if r.index != nil {
		return r.index
	}
	r.index = make(map[string]string)
	for _, dir := range r.cfg.Dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ttf") {
				return nil
			}
			name := strings.ToLower(d.Name())
			if _, seen := r.index[name]; !seen {
				r.index[name] = path
			}
			return nil
		})
	}
	return r.index
}
