// Package query models the caller's filter for a fetch run: the API-side
// commodity/state/district filters plus the client-side date range.
package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the day/month/year layout accepted for caller-supplied
// date bounds, matching the upstream arrival_date format.
const DateLayout = "02/01/2006"

// ErrInvalidRange is returned when the from bound lies after the to bound.
var ErrInvalidRange = errors.New("from date is after to date")

// Filter describes one logical fetch request. Commodity, State and District
// are forwarded to the API; From and To are applied client-side only. A zero
// time value means unbounded on that side. Filters are immutable once built.
type Filter struct {
	Commodity string
	State     string
	District  string
	From      time.Time
	To        time.Time
}

// ParseDate parses a caller-supplied DD/MM/YYYY date argument. Malformed
// input is rejected before any fetch begins.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use DD/MM/YYYY", s)
	}
	return t, nil
}

// Validate checks the filter's internal consistency.
func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ErrInvalidRange
	}
	return nil
}

// Normalize returns a copy with the date bounds widened to whole days: From
// is pinned to start-of-day, To to end-of-day. A same-day range therefore
// matches every record dated that day.
func (f Filter) Normalize() Filter {
	out := f
	out.Commodity = strings.TrimSpace(f.Commodity)
	out.State = strings.TrimSpace(f.State)
	out.District = strings.TrimSpace(f.District)
	if !f.From.IsZero() {
		y, m, d := f.From.Date()
		out.From = time.Date(y, m, d, 0, 0, 0, 0, f.From.Location())
	}
	if !f.To.IsZero() {
		y, m, d := f.To.Date()
		out.To = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), f.To.Location())
	}
	return out
}

// HasDateRange reports whether any date bound was requested.
func (f Filter) HasDateRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// IsBroad reports whether no API-side filter is set at all. Broad requests
// exceed the API's maximum retrievable window for a single query and must be
// partitioned by region.
func (f Filter) IsBroad() bool {
	return strings.TrimSpace(f.Commodity) == "" &&
		strings.TrimSpace(f.State) == "" &&
		strings.TrimSpace(f.District) == ""
}

// WithState returns a copy with the state filter bound to the given region
// name, all other fields unchanged. Used by the region partitioner.
func (f Filter) WithState(state string) Filter {
	out := f
	out.State = state
	return out
}

// String renders the effective filters for logging.
func (f Filter) String() string {
	parts := make([]string, 0, 5)
	if f.Commodity != "" {
		parts = append(parts, "commodity="+f.Commodity)
	}
	if f.State != "" {
		parts = append(parts, "state="+f.State)
	}
	if f.District != "" {
		parts = append(parts, "district="+f.District)
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(DateLayout))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(DateLayout))
	}
	if len(parts) == 0 {
		return "unfiltered"
	}
	return strings.Join(parts, " ")
}
