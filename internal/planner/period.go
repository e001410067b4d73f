package planner

import (
	"fmt"
	"time"
)

// Month is a calendar month period. Months order linearly via their index.
type Month struct {
	Year int
	Mon  time.Month
}

// MonthOf returns the Month containing t (UTC).
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Mon: u.Month()}
}

func (m Month) index() int {
	return m.Year*12 + int(m.Mon)
}

// Age returns the number of months between m and asOf. Zero for the
// current month, positive for past months.
func (m Month) Age(asOf Month) int {
	return asOf.index() - m.index()
}

// Before reports whether m precedes o.
func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

// Prev returns the month before m.
func (m Month) Prev() Month {
	if m.Mon == time.January {
		return Month{Year: m.Year - 1, Mon: time.December}
	}
	return Month{Year: m.Year, Mon: m.Mon - 1}
}

// Next returns the month after m.
func (m Month) Next() Month {
	if m.Mon == time.December {
		return Month{Year: m.Year + 1, Mon: time.January}
	}
	return Month{Year: m.Year, Mon: m.Mon + 1}
}

// String formats the month as "2025-01".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// Span distinguishes the period shape of a slot.
type Span int

const (
	SpanMonthly Span = iota
	SpanYearly
	SpanAllTime // sentinel outside normal period ordering, used by master genre slots
)

func (s Span) String() string {
	switch s {
	case SpanMonthly:
		return "monthly"
	case SpanYearly:
		return "yearly"
	case SpanAllTime:
		return "all-time"
	default:
		return ""
	}
}

// Kind identifies a managed playlist family.
type Kind int

const (
	KindFinds Kind = iota // liked songs
	KindTop               // most played, requires history
	KindDiscovery         // first plays, requires history

	// Retired kinds. Legacy monthly playlists with these prefixes may still
	// exist remotely; they are never planned, consolidated, or deleted.
	KindVibes
	KindRepeat
)

func (k Kind) String() string {
	switch k {
	case KindFinds:
		return "finds"
	case KindTop:
		return "top"
	case KindDiscovery:
		return "discovery"
	case KindVibes:
		return "vibes"
	case KindRepeat:
		return "repeat"
	default:
		return ""
	}
}

// EligibleForYearly reports whether the kind participates in month-to-year
// consolidation. The retired kinds never do.
func (k Kind) EligibleForYearly() bool {
	switch k {
	case KindFinds, KindTop, KindDiscovery:
		return true
	default:
		return false
	}
}
