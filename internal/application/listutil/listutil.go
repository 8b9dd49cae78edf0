// Package listutil parses list query strings and computes page metadata.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used when none, or an unlisted one, is requested.
const DefaultPerPage = 12

// PerPageOptions are the page sizes a client may ask for.
var PerPageOptions = []int{12, 24, 48}

// PageParams is the requested page.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// FilterParams carries the free-text search and the recognised exact filters.
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// ParsePageParams reads page and per_page.
// POST: Page >= 1 and PerPage is one of PerPageOptions
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseFilterParams reads q and the filter keys listed in keys; other keys are ignored.
func ParseFilterParams(q url.Values, keys []string) FilterParams {
	fp := FilterParams{Search: strings.TrimSpace(q.Get("q")), Filters: map[string]string{}}
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			fp.Filters[k] = v
		}
	}
	return fp
}

// PageInfo is the pagination state of a rendered list.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPageInfo computes the page metadata, clamping page into range.
// PRE: total >= 0
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// Offset is the number of rows before the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// PageNumbers returns up to five page numbers centred on the current page.
func (p PageInfo) PageNumbers() []int {
	const window = 5
	start := max(p.Page-window/2, 1)
	end := min(start+window-1, p.TotalPages)
	start = max(end-window+1, 1)
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

// PageURL returns path with q, replacing the page number.
func PageURL(path string, q url.Values, page int) string {
	c := url.Values{}
	for k, v := range q {
		c[k] = append([]string(nil), v...)
	}
	if page <= 1 {
		c.Del("page")
	} else {
		c.Set("page", strconv.Itoa(page))
	}
	if len(c) == 0 {
		return path
	}
	return path + "?" + c.Encode()
}
