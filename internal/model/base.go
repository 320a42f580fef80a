package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day, stored as UTC midnight.
type Date struct {
	time.Time
}

// NewDate builds a Date from its calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OptionalDate distinguishes an absent field from an explicit null in
// partial updates.
type OptionalDate struct {
	Set   bool
	Value *Date
}

func (o *OptionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	if d.IsZero() {
		o.Value = nil
		return nil
	}
	o.Value = &d
	return nil
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page" binding:"omitempty,min=1"`
	PageSize int `json:"page_size" form:"page_size" binding:"omitempty,min=1,max=100"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize fills in defaults. Neither page nor page_size means "no pagination
// requested"; page_size alone starts at page 1.
func (p Pagination) Normalize() Pagination {
	if p.Page <= 0 && p.PageSize <= 0 {
		return Pagination{}
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Window returns the [start, end) slice bounds for a list of n items.
func (p Pagination) Window(n int) (int, int) {
	if p.Page <= 0 || p.PageSize <= 0 {
		return 0, n
	}
	pages := (n + p.PageSize - 1) / p.PageSize
	if p.Page-1 >= pages {
		return n, n
	}
	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if end > n {
		end = n
	}
	return start, end
}

// Page is a slice of a larger list.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Paginate cuts items according to p. An unpaginated request returns everything.
func Paginate[T any](items []T, p Pagination) Page[T] {
	p = p.Normalize()
	start, end := p.Window(len(items))
	out := items[start:end]
	if out == nil {
		out = []T{}
	}
	size := p.PageSize
	if p.Page == 0 {
		size = len(items)
	}
	return Page[T]{Items: out, Total: len(items), Page: p.Page, PageSize: size}
}

func strPtr(s string) *string { return &s }

// NullIfEmpty turns empty optional strings into nil.
func NullIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return strPtr(*s)
}
