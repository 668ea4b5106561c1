package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Wrap splits text into lines of at most columns display cells, breaking at
// whitespace and splitting words that are wider than a whole line. Blank text
// yields no lines.
func Wrap(text string, columns int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if columns <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		lines []string
		line  strings.Builder
		width int
	)
	flush := func() {
		if width > 0 {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
	}

	for _, w := range words {
		ww := runewidth.StringWidth(w)
		for ww > columns {
			flush()
			head := runewidth.Truncate(w, columns, "")
			if head == "" {
				// a single cell wider than the budget still needs a line
				head = string([]rune(w)[:1])
			}
			lines = append(lines, head)
			w = w[len(head):]
			ww = runewidth.StringWidth(w)
		}
		if w == "" {
			continue
		}
		if width > 0 && width+1+ww > columns {
			flush()
		}
		if width > 0 {
			line.WriteByte(' ')
			width++
		}
		line.WriteString(w)
		width += ww
	}
	flush()
	return lines
}
