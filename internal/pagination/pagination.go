// Package pagination turns a raw page query parameter and a row count into a
// clamped, 1-indexed page window.
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of posts shown per feed page.
const DefaultPageSize = 10

// Page describes one window over an ordered result set.
type Page struct {
	Number   int
	Size     int
	NumPages int
	Total    int64
}

// ParseNumber reads a page number. Anything that is not a positive integer
// yields page 1; positive numbers too large for int become math.MaxInt so New
// clamps them to the last page.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// New builds the page for the requested number over total rows. Requests past
// the last page clamp to it. An empty result set still has one page.
func New(total int64, size, requested int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Page{Number: number, Size: size, NumPages: numPages, Total: total}
}

// FromQuery is New with the page number parsed from a raw query value.
func FromQuery(total int64, size int, raw string) Page {
	return New(total, size, ParseNumber(raw))
}

// Offset is the index of the first row on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the maximum number of rows on the page.
func (p Page) Limit() int {
	return p.Size
}

// Len is the number of rows actually on the page.
func (p Page) Len() int {
	remaining := p.Total - int64(p.Offset())
	if remaining <= 0 {
		return 0
	}
	if remaining > int64(p.Size) {
		return p.Size
	}
	return int(remaining)
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}

// PreviousNumber returns the previous page number, or 1 on the first page.
func (p Page) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return 1
}

// NextNumber returns the next page number, or the last page on the last page.
func (p Page) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.NumPages
}

// Window returns up to width page numbers centred on the current page, for
// rendering numbered links.
func (p Page) Window(width int) []int {
	if width <= 0 || width > p.NumPages {
		width = p.NumPages
	}
	start := p.Number - width/2
	if start < 1 {
		start = 1
	}
	if start+width-1 > p.NumPages {
		start = p.NumPages - width + 1
	}
	out := make([]int, 0, width)
	for i := start; i < start+width; i++ {
		out = append(out, i)
	}
	return out
}
