package participant

import (
	"strings"
	"time"
)

// AllSentinel is the selector value meaning "no restriction".
const AllSentinel = "All"

// Filter is a conjunction of optional predicates. A zero Filter matches every
// row. An empty county selection means all counties: clearing the picker
// widens the view rather than emptying it.
type Filter struct {
	Counties []string
	Sector   string
	Gender   string
	From     *time.Time // inclusive
	To       *time.Time // inclusive
}

// Apply returns the rows matching every present predicate, in source order.
// It is total: it never fails, an inverted date range simply matches nothing,
// and rows without a timestamp never satisfy a date-range predicate.
func (f Filter) Apply(t Table) Table {
	out := Table{}
	for _, p := range t {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f Filter) matches(p Participant) bool {
	if len(f.Counties) > 0 && !containsFold(f.Counties, p.County) {
		return false
	}
	if f.Sector != "" && f.Sector != AllSentinel && !strings.EqualFold(f.Sector, p.Sector) {
		return false
	}
	if f.Gender != "" && f.Gender != AllSentinel && !strings.EqualFold(f.Gender, p.Gender) {
		return false
	}
	if f.From != nil || f.To != nil {
		if p.Timestamp == nil {
			return false
		}
		if f.From != nil && p.Timestamp.Before(*f.From) {
			return false
		}
		if f.To != nil && p.Timestamp.After(*f.To) {
			return false
		}
	}
	return true
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
