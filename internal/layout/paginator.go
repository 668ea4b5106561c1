package layout

// State is the paginator state.
type State int

const (
	// WritingPage accepts content on the current page.
	WritingPage State = iota
	// PageFull is entered when a reservation does not fit. The full page
	// has been flushed and a fresh one opened; the state holds until the
	// next Draw or Advance lands on the new page.
	PageFull
)

func (s State) String() string {
	if s == PageFull {
		return "page-full"
	}
	return "writing-page"
}

// Paginator owns the current page and its descending cursor.
type Paginator struct {
	g      Geometry
	pages  []Page
	cur    Page
	cursor float64
	state  State
	breaks int
}

// NewPaginator opens page 1 with the cursor at the top margin.
func NewPaginator(g Geometry) *Paginator {
	p := &Paginator{g: g}
	p.newPage()
	return p
}

func (p *Paginator) newPage() {
	p.cur = Page{Number: len(p.pages) + 1, Width: p.g.PageWidth, Height: p.g.PageHeight}
	p.cursor = p.g.Top()
	p.state = WritingPage
}

func (p *Paginator) flush() {
	p.pages = append(p.pages, p.cur)
}

// Reserve checks that extent fits above the bottom margin and breaks the page
// when it does not. It reports whether a break happened. An empty page never
// breaks, so an element taller than a page is placed rather than looping.
func (p *Paginator) Reserve(extent float64) bool {
	if p.cursor-extent >= p.g.MarginBottom || len(p.cur.Ops) == 0 {
		return false
	}
	p.flush()
	p.breaks++
	p.newPage()
	p.state = PageFull
	return true
}

// Cursor returns the current vertical writing position.
func (p *Paginator) Cursor() float64 { return p.cursor }

// Advance moves the cursor down by d.
func (p *Paginator) Advance(d float64) {
	p.cursor -= d
	p.state = WritingPage
}

// State returns the paginator state.
func (p *Paginator) State() State { return p.state }

// Breaks returns the number of page breaks fired by Reserve.
func (p *Paginator) Breaks() int { return p.breaks }

// Draw appends op to the current page.
func (p *Paginator) Draw(op Op) {
	p.cur.Ops = append(p.cur.Ops, op)
	p.state = WritingPage
}

// Finish flushes the current page and returns every page in order. The
// paginator must not be used afterwards.
func (p *Paginator) Finish() []Page {
	p.flush()
	pages := p.pages
	p.pages = nil
	return pages
}
