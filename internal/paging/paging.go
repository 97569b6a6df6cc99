// Package paging normalizes the two pagination shapes returned by the
// marketplace API into a single Result.
//
// Length-aware pages carry current_page, per_page, total and last_page.
// Simple pages only signal neighbours through next_page_url/prev_page_url and
// may omit total. Some list endpoints return a bare array.
package paging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"
)

// Params is the query sent for one page. Page numbers are 1-based and are
// sent as-is; the remote side decides what an out-of-range page returns.
type Params struct {
	Page    int               `url:"page,omitempty"`
	PerPage int               `url:"per_page,omitempty"`
	Filters map[string]string `url:"-"`
}

// Values encodes p. Empty filter values are dropped so "all" filters vanish
// from the query.
func (p Params) Values() (url.Values, error) {
	v, err := query.Values(p)
	if err != nil {
		return nil, fmt.Errorf("encode paging params: %w", err)
	}
	for k, val := range p.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v, nil
}

// Result is one page of T. It is built fresh for every fetch.
type Result[T any] struct {
	Items         []T  `json:"items"`
	CurrentPage   int  `json:"current_page"`
	RequestedPage int  `json:"requested_page"`
	PageSize      int  `json:"page_size"`
	TotalItems    int  `json:"total_items"`
	TotalPages    int  `json:"total_pages"`
	HasNext       bool `json:"has_next"`
	HasPrevious   bool `json:"has_previous"`
	From          int  `json:"from"`
	To            int  `json:"to"`
}

func (r *Result[T]) Empty() bool {
	return len(r.Items) == 0
}

// Empty returns the zero page shown when a list has nothing to display.
func Empty[T any](page int) *Result[T] {
	if page < 1 {
		page = 1
	}
	return &Result[T]{Items: []T{}, CurrentPage: 1, RequestedPage: page}
}

// Normalize decodes the envelope content of a list endpoint.
func Normalize[T any](content json.RawMessage) (*Result[T], error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 || string(content) == "null" {
		return Empty[T](1), nil
	}

	if content[0] == '[' {
		var items []T
		if err := json.Unmarshal(content, &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return single(items), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(content, &fields); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, fmt.Errorf("decode page: missing data field")
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []T{}
	}

	current, ok := intField(fields, "current_page")
	if !ok || current < 1 {
		current = 1
	}
	perPage, _ := intField(fields, "per_page")
	if perPage < len(items) {
		perPage = len(items)
	}

	total, ok := intField(fields, "total")
	if !ok {
		// Simple paginators omit total; "to" is the best lower bound.
		if to, hasTo := intField(fields, "to"); hasTo {
			total = to
		} else {
			total = (current-1)*perPage + len(items)
		}
	}

	totalPages, ok := intField(fields, "last_page")
	if !ok {
		totalPages = pageCount(total, perPage)
	}
	if total == 0 {
		totalPages = 0
	}

	hasNext := current < totalPages
	if raw, present := fields["next_page_url"]; present {
		hasNext = urlPresent(raw)
		if hasNext && totalPages <= current {
			totalPages = current + 1
		}
	}
	hasPrev := current > 1
	if raw, present := fields["prev_page_url"]; present {
		hasPrev = urlPresent(raw)
	}

	r := &Result[T]{
		Items:         items,
		CurrentPage:   current,
		RequestedPage: current,
		PageSize:      perPage,
		TotalItems:    total,
		TotalPages:    totalPages,
		HasNext:       hasNext,
		HasPrevious:   hasPrev,
	}
	if total > 0 && r.CurrentPage > totalPages {
		r.CurrentPage = totalPages
	}

	r.From, ok = intField(fields, "from")
	if !ok && len(items) > 0 {
		r.From = (current-1)*perPage + 1
	}
	r.To, ok = intField(fields, "to")
	if !ok && len(items) > 0 {
		r.To = r.From + len(items) - 1
	}
	return r, nil
}

func single[T any](items []T) *Result[T] {
	if items == nil {
		items = []T{}
	}
	r := &Result[T]{
		Items:         items,
		CurrentPage:   1,
		RequestedPage: 1,
		PageSize:      len(items),
		TotalItems:    len(items),
	}
	if len(items) > 0 {
		r.TotalPages = 1
		r.From = 1
		r.To = len(items)
	}
	return r
}

func pageCount(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	if perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// intField reads a numeric field that Laravel may emit as a number, a
// numeric string, or null.
func intField(fields map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	raw = bytes.Trim(bytes.TrimSpace(raw), `"`)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func urlPresent(raw json.RawMessage) bool {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s != nil && *s != ""
}
