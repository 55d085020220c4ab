// Package nav holds the paging and scrolling arithmetic of the table views.
package nav

// DefaultPageSize is the number of matched rows per table page.
const DefaultPageSize = 50

// KeepInView returns the smallest change to offset that keeps cursor inside
// a window of visible rows.
func KeepInView(cursor, offset, visible int) int {
	if visible < 1 {
		visible = 1
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visible {
		return cursor - visible + 1
	}
	return offset
}

// Pager tracks the page, the cursor inside the page and the first drawn
// row of the page.
type Pager struct {
	PageSize int
	Page     int
	Cursor   int
	Offset   int
}

func New(pageSize int) Pager {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return Pager{PageSize: pageSize}
}

// Pages is ceil(total/PageSize), at least 1.
func (p *Pager) Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.PageSize - 1) / p.PageSize
}

// Bounds returns the [start, end) slice of matched rows on the current page.
func (p *Pager) Bounds(total int) (int, int) {
	start := p.Page * p.PageSize
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// Selected is the absolute index of the highlighted row.
func (p *Pager) Selected() int { return p.Page*p.PageSize + p.Cursor }

func (p *Pager) Reset() { p.Page, p.Cursor, p.Offset = 0, 0, 0 }

func (p *Pager) Up() {
	if p.Cursor > 0 {
		p.Cursor--
	}
}

// Down moves within the current page only.
func (p *Pager) Down(total int) {
	start, end := p.Bounds(total)
	if p.Cursor+1 < end-start {
		p.Cursor++
	}
}

func (p *Pager) PrevPage() {
	if p.Page > 0 {
		p.Page--
		p.Cursor, p.Offset = 0, 0
	}
}

func (p *Pager) NextPage(total int) {
	if p.Page+1 < p.Pages(total) {
		p.Page++
		p.Cursor, p.Offset = 0, 0
	}
}

// Clamp re-validates page, cursor and offset against the current total and
// the number of visible rows.
func (p *Pager) Clamp(total, visible int) {
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if last := p.Pages(total) - 1; p.Page > last {
		p.Page = last
	}
	if p.Page < 0 {
		p.Page = 0
	}
	start, end := p.Bounds(total)
	n := end - start
	if p.Cursor >= n {
		p.Cursor = n - 1
	}
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	p.Offset = KeepInView(p.Cursor, p.Offset, visible)
	if p.Offset < 0 {
		p.Offset = 0
	}
}
