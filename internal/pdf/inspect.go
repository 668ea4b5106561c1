package pdf

import (
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
)

// Inspect reads an exported PDF back: page count, size and the plain text of
// every page.
func Inspect(path string) (*PDFInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewPDFError(ErrPDFNotFound, "file does not exist", err)
		}
		return nil, NewPDFError(ErrPDFInvalid, "cannot access file", err)
	}
	if st.IsDir() {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "path is a directory", path, nil)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, NewPDFError(ErrPDFInvalid, "cannot open PDF", err)
	}
	defer f.Close()

	info := &PDFInfo{
		FilePath:  path,
		FileName:  filepath.Base(path),
		PageCount: r.NumPage(),
		FileSize:  st.Size(),
	}
	for i := 1; i <= info.PageCount; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			info.PageText = append(info.PageText, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		info.PageText = append(info.PageText, text)
	}
	return info, nil
}
