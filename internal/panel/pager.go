package panel

import "utsavya/internal/item"

// DefaultPageSize matches the tables everywhere in the panel.
const DefaultPageSize = 5

// Pager derives the visible slice of a list. Current is 1-indexed local UI
// state; it does not reset when the underlying collection shrinks; callers
// opt in via Clamp when they want that.
type Pager struct {
	PageSize int
	Current  int
}

// NewPager returns a pager on page 1 with the default page size.
func NewPager() Pager {
	return Pager{PageSize: DefaultPageSize, Current: 1}
}

// PageCount returns ceil(n / PageSize).
func (p Pager) PageCount(n int) int {
	if p.PageSize <= 0 || n <= 0 {
		return 0
	}
	return (n + p.PageSize - 1) / p.PageSize
}

// Slice returns the current page's items. Pages beyond the end are empty.
func (p Pager) Slice(items []item.Item) []item.Item {
	if p.PageSize <= 0 || p.Current < 1 {
		return nil
	}
	start := (p.Current - 1) * p.PageSize
	if start >= len(items) {
		return nil
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Goto jumps to a page; values below 1 snap to 1.
func (p *Pager) Goto(page int) {
	if page < 1 {
		page = 1
	}
	p.Current = page
}

// Clamp pulls Current back into [1, PageCount(n)] after the list shrank.
func (p *Pager) Clamp(n int) {
	last := p.PageCount(n)
	if last == 0 {
		p.Current = 1
		return
	}
	if p.Current > last {
		p.Current = last
	}
	if p.Current < 1 {
		p.Current = 1
	}
}
