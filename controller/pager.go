package controller

// Pager holds the 1-based pagination state of a collection view. The page is
// always clamped to [1, PageCount()], and any change to the surrounding query
// (search, filters, page size) resets it to 1.
type Pager struct {
	page     int
	pageSize int
	total    int
}

const DefaultPageSize = 5

func NewPager(pageSize int) Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Pager{page: 1, pageSize: pageSize}
}

func (p *Pager) Page() int      { return p.page }
func (p *Pager) PageSize() int  { return p.pageSize }
func (p *Pager) Total() int     { return p.total }

// PageCount is the number of pages for the current total; never below 1 so
// an empty collection still has a well-defined current page.
func (p *Pager) PageCount() int {
	if p.total <= 0 {
		return 1
	}
	count := (p.total + p.pageSize - 1) / p.pageSize
	if count < 1 {
		count = 1
	}
	return count
}

// SetTotal records the server-reported count and re-clamps the page, which
// matters when a deletion empties the last page.
func (p *Pager) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.clamp()
}

// SetPage moves to the given 1-based page, clamped into range.
func (p *Pager) SetPage(page int) {
	p.page = page
	p.clamp()
}

// SetPageSize changes the window size and resets to page 1.
func (p *Pager) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p.pageSize = size
	p.page = 1
}

// Reset returns to page 1, for search or filter changes.
func (p *Pager) Reset() {
	p.page = 1
}

func (p *Pager) clamp() {
	if p.page < 1 {
		p.page = 1
	}
	if max := p.PageCount(); p.page > max {
		p.page = max
	}
}
